package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/studyflow/studyflow/config"
	"github.com/studyflow/studyflow/pkg/api"
	"github.com/studyflow/studyflow/pkg/api/events"
	"github.com/studyflow/studyflow/pkg/api/handlers"
	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/intent"
	"github.com/studyflow/studyflow/pkg/llm"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/memory"
	"github.com/studyflow/studyflow/pkg/metrics"
	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/schedule"
	"github.com/studyflow/studyflow/pkg/srs"
	"github.com/studyflow/studyflow/pkg/storage"
	badgerstore "github.com/studyflow/studyflow/pkg/storage/badger"
	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
	redisstore "github.com/studyflow/studyflow/pkg/storage/redis"
	"github.com/studyflow/studyflow/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Load .env if present; environment variables feed the config loader.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Studyflow",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Student-state repository.
	var repo storage.Repository
	switch cfg.Storage.Type {
	case "badger":
		repo, err = badgerstore.NewBadgerRepository(&badgerstore.Config{
			Path:             cfg.Storage.Badger.Path,
			SyncWrites:       cfg.Storage.Badger.SyncWrites,
			ValueLogFileSize: cfg.Storage.Badger.ValueLogFileSize,
		})
		if err != nil {
			log.Error("Failed to open Badger repository", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Badger repository", "path", cfg.Storage.Badger.Path)
	case "memory":
		repo = memstore.NewMemoryRepository()
		log.Info("Initialized memory repository")
	default:
		repo = memstore.NewMemoryRepository()
		log.Warn("Unknown storage type, using memory repository", "type", cfg.Storage.Type)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("Error closing repository", "error", err)
		}
	}()

	// Completion history, Redis-backed when enabled.
	var history storage.CompletionHistory
	if cfg.Storage.Redis.Enabled {
		redisHistory, err := redisstore.NewHistory(ctx, &redisstore.Config{
			Address:  cfg.Storage.Redis.Address,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err != nil {
			log.Error("Failed to connect Redis completion history", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisHistory.Close(); err != nil {
				log.Error("Error closing Redis history", "error", err)
			}
		}()
		history = redisHistory
		log.Info("Initialized Redis completion history", "address", cfg.Storage.Redis.Address)
	} else {
		history = memstore.NewMemoryHistory()
		log.Info("Initialized in-memory completion history")
	}

	// Metrics manager.
	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:               cfg.Metrics.Enabled,
		Port:                  cfg.Metrics.Port,
		Path:                  cfg.Metrics.Path,
		SearchDurationBuckets: metrics.DefaultConfig().SearchDurationBuckets,
		HTTPDurationBuckets:   metrics.DefaultConfig().HTTPDurationBuckets,
	})
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Model capability: a real client when enabled, template fallbacks
	// everywhere otherwise.
	var completer llm.Completer = llm.Unavailable{}
	var embedder memory.Embedder = memory.NewHashEmbedder(cfg.Memory.VectorDimension)
	if cfg.LLM.Enabled {
		model, err := openai.New(
			openai.WithToken(cfg.LLM.APIKey),
			openai.WithModel(cfg.LLM.BalancedModel),
		)
		if err != nil {
			log.Error("Failed to create model client", "error", err)
			os.Exit(1)
		}
		completer = llm.NewClient(model, llm.ClientConfig{
			DefaultModel: cfg.LLM.BalancedModel,
			Timeout:      cfg.LLM.Timeout,
			RatePerSec:   cfg.LLM.RateLimit,
		})
		log.Info("Initialized model client", "model", cfg.LLM.BalancedModel)

		if cfg.Memory.EmbeddingProvider == "openai" {
			modelEmbedder, err := embeddings.NewEmbedder(model)
			if err != nil {
				log.Error("Failed to create embedder", "error", err)
				os.Exit(1)
			}
			embedder = memory.NewModelEmbedder(modelEmbedder,
				cfg.Memory.VectorDimension, cfg.Memory.EmbedBatchSize, cfg.Memory.EmbedRateLimit)
			log.Info("Initialized model embeddings", "dimension", cfg.Memory.VectorDimension)
		}
	}

	// Vector store with optional remote backend.
	storeOpts := []memory.StoreOption{memory.WithStoreLogger(log)}
	if metricsManager.Enabled() {
		storeOpts = append(storeOpts, memory.WithStoreObserver(metricsManager))
	}
	if cfg.Memory.Pinecone.Enabled {
		backend, err := memory.NewPineconeBackend(ctx, memory.PineconeConfig{
			APIKey:    cfg.Memory.Pinecone.APIKey,
			IndexName: cfg.Memory.Pinecone.IndexName,
			Namespace: cfg.Memory.Pinecone.Namespace,
		})
		if err != nil {
			log.Error("Failed to create Pinecone backend", "error", err)
			os.Exit(1)
		}
		storeOpts = append(storeOpts, memory.WithRemoteBackend(backend, embedder))
		log.Info("Initialized Pinecone vector backend", "index", cfg.Memory.Pinecone.IndexName)
	}
	store := memory.NewVectorStore(repo, cfg.Memory.VectorDimension, storeOpts...)

	retriever := memory.NewRetriever(
		memory.Weights{
			Semantic:     cfg.Memory.Retriever.Weights.Semantic,
			Recency:      cfg.Memory.Retriever.Weights.Recency,
			Confidence:   cfg.Memory.Retriever.Weights.Confidence,
			TypeBoost:    cfg.Memory.Retriever.Weights.TypeBoost,
			SubjectMatch: cfg.Memory.Retriever.Weights.SubjectMatch,
			Urgency:      cfg.Memory.Retriever.Weights.Urgency,
		},
		memory.RetrieverConfig{
			MinScore:       cfg.Memory.Retriever.MinScore,
			MaxResults:     cfg.Memory.Retriever.MaxResults,
			RecencyHorizon: time.Duration(cfg.Memory.Retriever.RecencyHorizonDays) * 24 * time.Hour,
		},
	)

	extractor := memory.NewExtractor(completer, cfg.Memory.MinConfidence, log)

	mastery := srs.NewManager(repo, srs.Config{
		MaxIntervalDays: cfg.SRS.MaxIntervalDays,
		EMAAlpha:        cfg.SRS.EMAAlpha,
	})

	emotions := burnout.NewMonitor(repo, cfg.Burnout.WindowDays, burnout.Thresholds{
		Medium: cfg.Burnout.MediumThreshold,
		High:   cfg.Burnout.HighThreshold,
	})

	lane := memory.NewLane(store, retriever, extractor, mastery, emotions, log)
	defer lane.Close()

	classifier := intent.NewClassifier(intent.Thresholds{
		Balanced: cfg.Intent.BalancedThreshold,
		Deep:     cfg.Intent.DeepThreshold,
	})

	generator := quest.NewGenerator(quest.GeneratorConfig{
		MaxDaily:       cfg.Quest.MaxDaily,
		MaxMinutes:     cfg.Quest.MaxMinutes,
		MainShare:      cfg.Quest.MainShare,
		ReviewShare:    cfg.Quest.ReviewShare,
		BonusShare:     cfg.Quest.BonusShare,
		StreakBonusMin: cfg.Quest.StreakBonusMin,
	})

	trackerOpts := []quest.TrackerOption{quest.WithTrackerLogger(log)}
	if metricsManager.Enabled() {
		trackerOpts = append(trackerOpts, quest.WithTrackerObserver(metricsManager))
	}
	tracker := quest.NewTracker(repo, trackerOpts...)

	plans := plan.NewStaticSource()

	delays := schedule.NewDelayHandler(history, schedule.DelayConfig{
		CrisisMissedDays:     cfg.Schedule.CrisisMissedDays,
		ConcernMissedDays:    cfg.Schedule.ConcernMissedDays,
		ConcernExpiredQuests: cfg.Schedule.ConcernExpiredQuests,
		MissedDayLookback:    schedule.DefaultDelayConfig().MissedDayLookback,
	})
	rescheduler := schedule.NewAutoRescheduler(schedule.DefaultReschedulerConfig())
	modifier := schedule.NewModifier(schedule.DefaultModifierConfig())

	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()

	eng := engine.New(engine.Deps{
		Classifier:  classifier,
		Lane:        lane,
		Mastery:     mastery,
		Emotions:    emotions,
		Generator:   generator,
		Tracker:     tracker,
		Plans:       plans,
		History:     history,
		Delays:      delays,
		Rescheduler: rescheduler,
		Modifier:    modifier,
		Logger:      log,
		Events:      broadcaster,
	})

	// Hourly expiry sweep and midnight rollover.
	scheduler := quest.NewScheduler(tracker, eng, eng, log)
	scheduler.Start()
	defer scheduler.Stop()

	// Config hot-reload for the tuning knobs.
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, config.NewLoader())
		if err != nil {
			log.Warn("Config watching disabled", "error", err)
		} else {
			watcher.OnChange(func(updated *config.Config) {
				retriever.SetWeights(memory.Weights{
					Semantic:     updated.Memory.Retriever.Weights.Semantic,
					Recency:      updated.Memory.Retriever.Weights.Recency,
					Confidence:   updated.Memory.Retriever.Weights.Confidence,
					TypeBoost:    updated.Memory.Retriever.Weights.TypeBoost,
					SubjectMatch: updated.Memory.Retriever.Weights.SubjectMatch,
					Urgency:      updated.Memory.Retriever.Weights.Urgency,
				})
				emotions.SetThresholds(burnout.Thresholds{
					Medium: updated.Burnout.MediumThreshold,
					High:   updated.Burnout.HighThreshold,
				})
				classifier.SetThresholds(intent.Thresholds{
					Balanced: updated.Intent.BalancedThreshold,
					Deep:     updated.Intent.DeepThreshold,
				})
				log.Info("Applied updated tuning configuration")
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					log.Warn("Config watcher stopped", "error", err)
				}
			}()
			defer func() { _ = watcher.Stop() }()
		}
	}

	// HTTP API.
	wsHandler := handlers.NewWebSocketHandler(log, broadcaster, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
	})
	wsHandler.Start()
	defer wsHandler.Close()

	apiHandlers := &api.Handlers{
		Health:    handlers.NewHealthHandler(eng),
		Chat:      handlers.NewChatHandler(eng, log, classificationRecorder(metricsManager)),
		Memory:    handlers.NewMemoryHandler(store, log),
		Mastery:   handlers.NewMasteryHandler(eng, mastery, log),
		Wellbeing: handlers.NewWellbeingHandler(eng, log),
		Quest:     handlers.NewQuestHandler(eng, log),
		Schedule:  handlers.NewScheduleHandler(eng, log),
		Student:   handlers.NewStudentHandler(eng, repo, log),
		WebSocket: wsHandler,
	}
	if metricsManager.Enabled() {
		apiHandlers.Metrics = metricsManager
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("Studyflow is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
	)
	log.Info("Press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	log.Info("Studyflow stopped gracefully")
}

// classificationRecorder adapts the metrics manager for the chat handler;
// a disabled manager yields a nil recorder.
func classificationRecorder(m *metrics.Manager) handlers.ClassificationRecorder {
	if !m.Enabled() {
		return nil
	}
	return m
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Println(version.String())
}

func printHelp() {
	fmt.Printf("Studyflow - Personalization & Scheduling Engine for student learning\n\n")
	fmt.Printf("Usage: studyflow [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  studyflow                                 # Run with default config\n")
	fmt.Printf("  studyflow -config config.yaml             # Use specific config file\n")
	fmt.Printf("  studyflow -port 9090 -log-level debug     # Override specific options\n")
	fmt.Printf("  studyflow -version                        # Print version info\n")
}
