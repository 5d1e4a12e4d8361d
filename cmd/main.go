package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
	"resume-screener/infrastructure"
	"resume-screener/interfaces"
	"resume-screener/usecase"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := infrastructure.NewLogger(cfg)
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()

	store, err := infrastructure.OpenStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()

	files, err := infrastructure.NewFileStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to set up file storage")
	}

	generator, closeGenerator, err := infrastructure.NewGenerator(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to set up scoring model")
	}
	defer closeGenerator()
	if cfg.LLMAPIKey == "" && generator.RequiresAPIKey() {
		log.WithField("provider", generator.Name()).Warn("no default api key; requests must bring their own")
	}

	extractor, err := infrastructure.NewDocumentExtractor(cfg.UnidocLicense, log)
	if err != nil {
		log.WithError(err).Fatal("failed to set up text extraction")
	}

	var events domain.EventPublisher = infrastructure.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := infrastructure.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer rmq.Close()
		events = rmq
	}

	scorer := usecase.NewScoringEngine(generator, cfg.LLMAPIKey, cfg.LLMTimeout, log)
	handler := &interfaces.HTTPHandler{
		Jobs: usecase.NewJobService(store, store, log),
		Scans: usecase.NewScanService(usecase.ScanDeps{
			Jobs:              store,
			Scans:             store,
			Users:             store,
			Files:             files,
			Scorer:            scorer,
			Extractor:         extractor,
			Events:            events,
			Exporter:          infrastructure.ExcelExporter{},
			Flow:              cfg.ScanFlow,
			DefaultStrictness: cfg.DefaultStrictness,
			Log:               log,
		}),
		Users:          usecase.NewUserService(store),
		Log:            log,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}

	routerCfg := interfaces.RouterConfig{Log: log}
	if cfg.AuthMode == infrastructure.AuthModeHeader {
		routerCfg.AuthHeader = cfg.AuthHeader
	}
	if cfg.StorageDriver == infrastructure.StorageLocal {
		handler.UploadsDir = cfg.UploadsDir
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      interfaces.NewRouter(handler, routerCfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.WithFields(logrus.Fields{
		"addr":     cfg.HTTPAddr,
		"db":       cfg.DBDriver,
		"provider": cfg.LLMProvider,
		"model":    cfg.LLMModel,
		"flow":     cfg.ScanFlow,
		"auth":     cfg.AuthMode,
	}).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}

	<-idleConnsClosed
	log.Info("server stopped")
}
