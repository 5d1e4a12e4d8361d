package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
	"resume-screener/usecase"
)

const (
	strictnessHeader = "X-Strictness"
	apiKeyHeader     = "X-API-Key"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartOverhead is the room left for form fields and part headers on
	// top of MaxUploadBytes.
	multipartOverhead = 64 << 10
)

type HTTPHandler struct {
	Jobs           *usecase.JobService
	Scans          *usecase.ScanService
	Users          *usecase.UserService
	Log            *logrus.Logger
	MaxUploadBytes int64
	// UploadsDir holds locally stored uploads. Empty when files live elsewhere.
	UploadsDir string
}

func (h *HTTPHandler) Register(r gin.IRoutes) {
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs", h.CreateJob)
	r.GET("/jobs/:id", h.GetJob)
	r.PATCH("/jobs/:id", h.UpdateJob)
	r.DELETE("/jobs/:id", h.DeleteJob)
	r.GET("/jobs/:id/scans", h.ListJobScans)

	r.GET("/scans", h.ListScans)
	r.GET("/scans/export", h.ExportScans)
	r.GET("/scans/:id", h.GetScan)
	r.PATCH("/scans/:id", h.UpdateScanStatus)
	r.DELETE("/scans/:id", h.DeleteScan)

	r.GET("/uploads/:key", h.DownloadUpload)

	r.POST("/analyze", h.Analyze)
	r.POST("/extract", h.Extract)

	r.GET("/user/profile", h.GetProfile)
	r.PUT("/user/profile", h.UpdateProfile)
	r.PUT("/user/settings", h.UpdateSettings)
}

// bindJSON reports malformed bodies as 400 and returns false when the handler should stop.
func (h *HTTPHandler) bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondError(c, h.Log, err)
	} else {
		badRequest(c, "invalid request body")
	}
	return false
}

type createJobRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Department  string   `json:"department" binding:"max=255"`
	Description string   `json:"description"`
	Status      string   `json:"status" binding:"omitempty,oneof=Active Closed"`
	Skills      []string `json:"skills" binding:"omitempty,dive,max=100"`
}

type updateJobRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=255"`
	Department  *string   `json:"department" binding:"omitempty,max=255"`
	Description *string   `json:"description"`
	Status      *string   `json:"status" binding:"omitempty,oneof=Active Closed"`
	Skills      *[]string `json:"skills" binding:"omitempty,dive,max=100"`
}

func (h *HTTPHandler) ListJobs(c *gin.Context) {
	jobs, err := h.Jobs.List(c.Request.Context(), ownerOf(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	job, err := h.Jobs.Get(c.Request.Context(), ownerOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if !h.bindJSON(c, &req) {
		return
	}

	job, err := h.Jobs.Create(c.Request.Context(), ownerOf(c), usecase.JobInput{
		Title:       req.Title,
		Department:  req.Department,
		Description: req.Description,
		Status:      domain.JobStatus(req.Status),
		Skills:      req.Skills,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *HTTPHandler) UpdateJob(c *gin.Context) {
	var req updateJobRequest
	if !h.bindJSON(c, &req) {
		return
	}

	patch := domain.JobPatch{
		Title:       req.Title,
		Department:  req.Department,
		Description: req.Description,
		Skills:      req.Skills,
	}
	if req.Status != nil {
		status := domain.JobStatus(*req.Status)
		patch.Status = &status
	}

	job, err := h.Jobs.Update(c.Request.Context(), ownerOf(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *HTTPHandler) DeleteJob(c *gin.Context) {
	if err := h.Jobs.Delete(c.Request.Context(), ownerOf(c), c.Param("id")); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

func (h *HTTPHandler) ListJobScans(c *gin.Context) {
	scans, err := h.Scans.ListByJob(c.Request.Context(), ownerOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, scans)
}

func (h *HTTPHandler) ListScans(c *gin.Context) {
	scans, err := h.Scans.List(c.Request.Context(), ownerOf(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, scans)
}

func (h *HTTPHandler) GetScan(c *gin.Context) {
	scan, err := h.Scans.Get(c.Request.Context(), ownerOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// ExportScans streams an .xlsx of every scan, or of one job's scans with ?jobId=.
func (h *HTTPHandler) ExportScans(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.Scans.Export(c.Request.Context(), ownerOf(c), c.Query("jobId"), &buf); err != nil {
		respondError(c, h.Log, err)
		return
	}

	filename := fmt.Sprintf("scans-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type updateScanRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) UpdateScanStatus(c *gin.Context) {
	var req updateScanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	scan, err := h.Scans.UpdateStatus(c.Request.Context(), ownerOf(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

func (h *HTTPHandler) DeleteScan(c *gin.Context) {
	if err := h.Scans.Delete(c.Request.Context(), ownerOf(c), c.Param("id")); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scan deleted"})
}

// Analyze accepts multipart fields file, text and jobTitle and returns the stored scan.
func (h *HTTPHandler) Analyze(c *gin.Context) {
	upload, err := h.readUpload(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	in := usecase.SubmitInput{
		Owner:      ownerOf(c),
		File:       upload,
		ResumeText: c.PostForm("text"),
		JobTitle:   c.PostForm("jobTitle"),
		APIKey:     strings.TrimSpace(c.GetHeader(apiKeyHeader)),
	}
	if raw := strings.TrimSpace(c.GetHeader(strictnessHeader)); raw != "" {
		strictness, err := strconv.Atoi(raw)
		if err != nil || strictness < domain.MinStrictness || strictness > domain.MaxStrictness {
			respondError(c, h.Log, domain.Invalid("strictness", "strictness must be an integer between 0 and 100"))
			return
		}
		in.Strictness = &strictness
	}

	scan, err := h.Scans.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, scan)
}

// Extract returns the plain text of an uploaded document.
func (h *HTTPHandler) Extract(c *gin.Context) {
	upload, err := h.readUpload(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if upload == nil {
		respondError(c, h.Log, domain.MissingFields("file"))
		return
	}

	text, err := h.Scans.ExtractText(c.Request.Context(), *upload)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// DownloadUpload serves a locally stored resume to the owner of the scan that
// references it.
func (h *HTTPHandler) DownloadUpload(c *gin.Context) {
	key := c.Param("key")
	if h.UploadsDir == "" || key != filepath.Base(key) {
		respondError(c, h.Log, fmt.Errorf("upload %w", domain.ErrNotFound))
		return
	}

	scan, err := h.Scans.GetByFile(c.Request.Context(), ownerOf(c), key)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.FileAttachment(filepath.Join(h.UploadsDir, key), scan.Filename)
}

// readUpload returns nil without error when the form has no file part.
func (h *HTTPHandler) readUpload(c *gin.Context) (*domain.Upload, error) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, domain.Invalid("file", fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes))
	}
	if err != nil {
		return nil, domain.Invalid("file", "could not read multipart form")
	}
	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		return nil, domain.Invalid("file", fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes))
	}

	content, err := readFormFile(header)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type profileResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	JobTitle   string    `json:"jobTitle"`
	AvatarURL  string    `json:"avatarUrl"`
	Model      string    `json:"model,omitempty"`
	Strictness *int      `json:"strictness,omitempty"`
	HasAPIKey  bool      `json:"hasApiKey"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toProfile(u domain.User) profileResponse {
	return profileResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		JobTitle:   u.JobTitle,
		AvatarURL:  u.AvatarURL,
		Model:      u.Model,
		Strictness: u.Strictness,
		HasAPIKey:  u.APIKey != "",
		UpdatedAt:  u.UpdatedAt,
	}
}

type updateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=255"`
	JobTitle  *string `json:"jobTitle" binding:"omitempty,max=255"`
	AvatarURL *string `json:"avatar" binding:"omitempty,max=1024"`
}

type updateSettingsRequest struct {
	APIKey     *string `json:"apiKey" binding:"omitempty,max=512"`
	Model      *string `json:"model" binding:"omitempty,max=128"`
	Strictness *int    `json:"strictness" binding:"omitempty,min=0,max=100"`
}

func (h *HTTPHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.GetProfile(c.Request.Context(), ownerOf(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}

func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), ownerOf(c), domain.ProfilePatch{
		Name:      req.Name,
		JobTitle:  req.JobTitle,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}

func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.Users.UpdateSettings(c.Request.Context(), ownerOf(c), domain.SettingsPatch{
		APIKey:     req.APIKey,
		Model:      req.Model,
		Strictness: req.Strictness,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}
