package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/customHttpClient"
	"github.com/akolanti/PDFChat/internal/data/store"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/handlers"
	"github.com/akolanti/PDFChat/internal/mcpTools"
	"github.com/akolanti/PDFChat/internal/middleware"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/PDFChat/internal/server"
	"github.com/akolanti/PDFChat/internal/session"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

var listenAddr string

func main() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger_i.Init(logger_i.Options{Level: settings.LogLevel, JSON: settings.IsProd()})
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	httpClient := customHttpClient.GetClient()
	providers := rag.NewProviders(serviceContext, settings, httpClient)

	var builder vectorDB.Builder = chromemDB.NewBuilder()
	if settings.VectorBackend == config.VectorBackendQdrant {
		qdrant, err := qdrantDB.GetQuadrantClient(serviceContext, settings.Qdrant)
		if err != nil {
			logger.Error("Vector database failed to initialize. Shutting down.", "error", err)
			return
		}
		builder = qdrant
	}
	logger.Info("Vector index backend", "backend", builder.Name())

	conversationStore := store.GetConversationStore(serviceContext, settings.Redis)

	defaultMode, err := commonModels.ParseProcessingMode(settings.DefaultMode)
	if err != nil {
		logger.Warn("Invalid default mode, using public", "error", err)
		defaultMode = commonModels.ModePublic
	}

	ragService := rag.NewService(ingest.NewLoader(), ingest.NewSplitter(), builder, providers)
	manager := session.NewManager(ragService, conversationStore,
		session.WithDefaultMode(defaultMode),
		session.WithIdleTimeout(settings.SessionIdleTimeout),
	)

	if settings.NoAuthBypass() {
		logger.Warn("No AUTH_TOKEN configured, requests are not authenticated")
	}
	middleware.Init(middleware.Settings{
		AuthToken:      settings.AuthToken,
		RatePerSecond:  config.RATE_LIMIT_PER_SECOND,
		BurstPerSecond: config.BURST_RATE_LIMIT_PER_SECOND,
	})

	root, err := os.Getwd()
	if err != nil {
		logger.Error("Could not resolve working directory", "error", err)
		return
	}
	handlers.InitSessionHandler(manager, filepath.Join(root, config.UploadDirectory))
	router := server.NewRouter(handlers.GetSessionHandler(), mcpTools.NewHandler(mcpTools.NewServer(manager)))

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices: func(ctx context.Context) {
			manager.Close(ctx)
			closeExternalServices()
			customHttpClient.CloseIdle()
		},
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, router)

	<-stopExecution
	logger.Info("Server stopped")
}
