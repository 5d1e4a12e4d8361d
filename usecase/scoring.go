package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

// PromptVersion identifies the prompt/response contract. Renaming a response
// field or changing the instructions must bump it together with ParseVerdict.
const PromptVersion = "v1"

const DefaultScoringTimeout = 30 * time.Second

type ScoreRequest struct {
	ResumeText     string
	JobTitle       string
	JobDescription string
	Strictness     int
	APIKey         string
	Model          string
}

type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (domain.Verdict, error)
}

// ScoringEngine grades one resume against one job with a single model call.
type ScoringEngine struct {
	generator  domain.Generator
	defaultKey string
	timeout    time.Duration
	log        *logrus.Logger
}

func NewScoringEngine(generator domain.Generator, defaultKey string, timeout time.Duration, log *logrus.Logger) *ScoringEngine {
	if timeout <= 0 {
		timeout = DefaultScoringTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ScoringEngine{
		generator:  generator,
		defaultKey: strings.TrimSpace(defaultKey),
		timeout:    timeout,
		log:        log,
	}
}

// Score returns an error only when the model could not be reached. A reply that
// cannot be parsed degrades to domain.FallbackVerdict.
func (e *ScoringEngine) Score(ctx context.Context, req ScoreRequest) (domain.Verdict, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = e.defaultKey
	}
	if apiKey == "" && e.generator.RequiresAPIKey() {
		return domain.Verdict{}, fmt.Errorf("%w: no %s api key available", domain.ErrConfiguration, e.generator.Name())
	}

	temperature := domain.Temperature(req.Strictness)
	prompt := BuildPrompt(req.JobTitle, req.JobDescription, req.ResumeText, req.Strictness)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	entry := e.log.WithFields(logrus.Fields{
		"provider":       e.generator.Name(),
		"model":          req.Model,
		"strictness":     req.Strictness,
		"temperature":    temperature,
		"prompt_version": PromptVersion,
	})

	started := time.Now()
	raw, err := e.generator.Generate(ctx, domain.GenerateRequest{
		Prompt:      prompt,
		APIKey:      apiKey,
		Model:       req.Model,
		Temperature: temperature,
	})
	if err != nil {
		entry.WithError(err).Error("scoring call failed")
		return domain.Verdict{}, &domain.UpstreamError{Provider: e.generator.Name(), Err: err}
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		entry.WithError(err).WithField("response_preview", preview(raw, 200)).Warn("unusable scoring response, storing fallback verdict")
		return domain.FallbackVerdict(), nil
	}

	entry.WithFields(logrus.Fields{
		"score":    verdict.Score,
		"status":   verdict.Status,
		"duration": time.Since(started).String(),
	}).Info("resume scored")
	return verdict, nil
}

func BuildPrompt(jobTitle, jobDescription, resumeText string, strictness int) string {
	var sb strings.Builder

	sb.WriteString("You are an expert hiring manager AI. Analyze this resume against the job posting below.\n\n")

	sb.WriteString("## Job Title\n")
	sb.WriteString(jobTitle)
	sb.WriteString("\n\n## Job Description\n")
	sb.WriteString(jobDescription)
	sb.WriteString("\n\n## Resume Text\n")
	sb.WriteString(resumeText)

	sb.WriteString("\n\n## Your Task\n")
	sb.WriteString("Score this candidate from 0-100 based on how well their resume matches the job requirements.\n\n")
	sb.WriteString(fmt.Sprintf("Scoring mode: %s\n", domain.StrictnessLabel(strictness)))
	sb.WriteString("- lenient: give benefit of the doubt for transferable skills\n")
	sb.WriteString("- balanced: standard matching\n")
	sb.WriteString("- strict: exact skill matches required, penalize gaps\n")
	sb.WriteString("- ruthless: only top-tier candidates pass, nitpick everything\n\n")

	sb.WriteString("## Response Format\n")
	sb.WriteString("Respond ONLY with valid JSON, no markdown fencing:\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "score": <number 0-100>,` + "\n")
	sb.WriteString(`  "status": "<Pass or Fail>",` + "\n")
	sb.WriteString(`  "candidateName": "<extracted from resume or Unknown>",` + "\n")
	sb.WriteString(`  "summary": "<2-3 sentence explanation of the score>"` + "\n")
	sb.WriteString("}\n\n")

	sb.WriteString(fmt.Sprintf("Pass threshold: score >= %d\n", domain.PassThreshold))
	sb.WriteString(fmt.Sprintf("If score < %d, status must be \"Fail\".", domain.PassThreshold))

	return sb.String()
}

type rawVerdict struct {
	Score         *float64 `json:"score"`
	Status        *string  `json:"status"`
	CandidateName *string  `json:"candidateName"`
	Summary       *string  `json:"summary"`
}

// ParseVerdict decodes a model reply. Code fences are stripped; anything else
// around the JSON object makes the reply invalid. The returned status always
// follows the pass threshold, whatever the model claimed.
func ParseVerdict(raw string) (domain.Verdict, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return domain.Verdict{}, errors.New("empty response")
	}

	var rv rawVerdict
	if err := json.Unmarshal([]byte(cleaned), &rv); err != nil {
		return domain.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	var missing []string
	if rv.Score == nil {
		missing = append(missing, "score")
	}
	if rv.Status == nil {
		missing = append(missing, "status")
	}
	if rv.CandidateName == nil {
		missing = append(missing, "candidateName")
	}
	if rv.Summary == nil {
		missing = append(missing, "summary")
	}
	if len(missing) > 0 {
		return domain.Verdict{}, fmt.Errorf("response missing fields: %s", strings.Join(missing, ", "))
	}

	score := math.Round(*rv.Score)
	if math.IsNaN(score) || score < 0 || score > 100 {
		return domain.Verdict{}, fmt.Errorf("score %v out of range", *rv.Score)
	}

	switch domain.ScanStatus(strings.TrimSpace(*rv.Status)) {
	case domain.ScanPass, domain.ScanFail:
	default:
		return domain.Verdict{}, fmt.Errorf("unexpected status %q", *rv.Status)
	}

	name := strings.TrimSpace(*rv.CandidateName)
	if name == "" {
		name = domain.UnknownCandidate
	}

	return domain.Verdict{
		Score:         int(score),
		Status:        domain.StatusForScore(int(score)),
		CandidateName: name,
		Summary:       strings.TrimSpace(*rv.Summary),
	}, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add anyway.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if len(content) >= 4 && strings.EqualFold(content[:4], "json") {
			content = content[4:]
		}
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")

	return strings.TrimSpace(content)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
