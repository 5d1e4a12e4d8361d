package interfaces

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	// AuthHeader names the trusted identity header. Empty disables ownership.
	AuthHeader string
	Log        *logrus.Logger
}

func NewRouter(h *HTTPHandler, cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(cfg.Log))
	if h.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = h.MaxUploadBytes
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/", identity(cfg.AuthHeader))
	h.Register(api)

	return router
}

// useJSONFieldNames makes binding errors report json names rather than Go field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
