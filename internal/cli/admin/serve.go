package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dang-hang/fleet-wise-aide/internal/api/handlers"
	"github.com/dang-hang/fleet-wise-aide/internal/chunker"
	"github.com/dang-hang/fleet-wise-aide/internal/config"
	"github.com/dang-hang/fleet-wise-aide/internal/detect"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/jobs"
	"github.com/dang-hang/fleet-wise-aide/internal/llm"
	"github.com/dang-hang/fleet-wise-aide/internal/pdfextract"
	"github.com/dang-hang/fleet-wise-aide/internal/repository"
	"github.com/dang-hang/fleet-wise-aide/internal/segment"
	"github.com/dang-hang/fleet-wise-aide/internal/server"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/dang-hang/fleet-wise-aide/internal/storage"
	"github.com/dang-hang/fleet-wise-aide/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the fleetwise API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-sweep", false, "Disable the background ingest sweep worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	manualRepo := repository.NewManualRepository(pool)
	spanRepo := repository.NewSpanRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	sectionRepo := repository.NewSectionRepository(pool)
	figureRepo := repository.NewFigureRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(apiKeyRepo, uuidGen)

	if cfg.InitAPIKey != "" {
		if err := bootstrapInitialKey(ctx, cfg, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial API key: %w", err)
		}
	}

	var store service.ObjectStore
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		store = s3Client
	} else {
		log.Println("warning: S3 not configured, manual storage disabled")
		store = &noOpStore{}
	}

	var llmClient *llm.Client
	if cfg.HasOpenAI() {
		llmClient = llm.NewClientWithConfig(llm.Config{
			APIKey:    cfg.OpenAIAPIKey,
			ChatModel: cfg.ChatModel,
		})
	}

	extractor := pdfextract.New()
	if cfg.PageBatchSize > 0 {
		extractor.BatchSize = cfg.PageBatchSize
	}

	var detector *detect.Detector
	var segmenter *segment.Segmenter
	var chunkBuilder *chunker.Builder
	if llmClient != nil {
		detector = detect.NewWithEnricher(llmClient)
		segmenter = segment.New(llmClient)
		chunkBuilder = chunker.NewWithEmbedder(llmClient)
	} else {
		detector = detect.New()
		segmenter = segment.New(nil)
		chunkBuilder = chunker.New()
	}
	if cfg.SpansPerChunk > 0 {
		chunkBuilder.SpansPerChunk = cfg.SpansPerChunk
	}

	manualSvc := service.NewManualService(manualRepo, store)
	ingestSvc := service.NewIngestionService(service.IngestionDeps{
		ManualRepo:     manualRepo,
		SpanRepo:       spanRepo,
		ChunkRepo:      chunkRepo,
		SectionRepo:    sectionRepo,
		FigureRepo:     figureRepo,
		TxRunner:       txRunner,
		Store:          store,
		Extractor:      extractor,
		Detector:       detector,
		Segmenter:      segmenter,
		Chunks:         chunkBuilder,
		FrontMatterMax: cfg.FrontMatterMax,
	})

	retrievalDeps := service.RetrievalDeps{
		ManualRepo:  manualRepo,
		SectionRepo: sectionRepo,
		SpanRepo:    spanRepo,
		ChunkRepo:   chunkRepo,
		FigureRepo:  figureRepo,
	}
	if llmClient != nil {
		retrievalDeps.Vehicle = llmClient
		retrievalDeps.Embedder = llmClient
	}
	retrievalSvc := service.NewRetrievalService(retrievalDeps)

	assembler := service.NewCitationAssembler(store)

	var answerHandler *handlers.QueryHandler
	if llmClient != nil {
		answerSvc := service.NewAnswerService(retrievalSvc, assembler, llmClient)
		answerHandler = handlers.NewQueryHandler(answerSvc)
	} else {
		answerHandler = handlers.NewQueryHandler(&noOpAnswerService{})
	}

	var sweepWorker *jobs.Worker
	noSweep, _ := cmd.Flags().GetBool("no-sweep")
	if !noSweep {
		sweepWorker = jobs.NewWorker(jobs.NewIngestWorker(manualRepo, ingestSvc), 30*time.Second)
		go sweepWorker.Start(ctx)
		log.Println("ingest sweep worker started")
	}

	routerCfg := server.RouterConfig{
		AuthValidator: authSvc,
		ManualHandler: handlers.NewManualHandler(manualSvc),
		IngestHandler: handlers.NewIngestHandler(ingestSvc),
		QueryHandler:  answerHandler,
		AuthHandler:   handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if sweepWorker != nil {
		sweepWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpStore struct{}

func (s *noOpStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return fmt.Errorf("storage not configured: S3_ENDPOINT required")
}

func (s *noOpStore) FetchObject(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("storage not configured: S3_ENDPOINT required")
}

func (s *noOpStore) DeleteObject(ctx context.Context, key string) error {
	return fmt.Errorf("storage not configured: S3_ENDPOINT required")
}

func (s *noOpStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return "", fmt.Errorf("storage not configured: S3_ENDPOINT required")
}

type noOpAnswerService struct{}

func (s *noOpAnswerService) Answer(ctx context.Context, ownerID string, req service.AnswerRequest, emit service.EventSink) error {
	return domain.NewDomainError(domain.ErrCodeCapabilityUnavailable, "answer generation not configured: OPENAI_API_KEY required")
}

func (s *noOpAnswerService) References(ctx context.Context, ownerID string, req service.AnswerRequest) (*service.ReferencesResult, error) {
	return nil, domain.NewDomainError(domain.ErrCodeCapabilityUnavailable, "answer generation not configured: OPENAI_API_KEY required")
}

func bootstrapInitialKey(ctx context.Context, cfg *config.Config, authSvc *service.AuthService) error {
	if cfg.InitOwnerID == "" {
		return fmt.Errorf("FLEETWISE_INIT_OWNER_ID required when FLEETWISE_INIT_API_KEY is set")
	}
	if !service.IsValidAPIToken(cfg.InitAPIKey) {
		return fmt.Errorf("invalid FLEETWISE_INIT_API_KEY format (expected 'fwa_<64 hex chars>')")
	}

	if ownerID, err := authSvc.ValidateAPIKey(ctx, cfg.InitAPIKey); err == nil {
		log.Printf("bootstrap: API key already exists (owner: %s)", ownerID)
		return nil
	}

	if err := authSvc.CreateAPIKeyWithToken(ctx, cfg.InitOwnerID, "bootstrap", cfg.InitAPIKey); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	log.Printf("bootstrap: created API key for owner %s", cfg.InitOwnerID)
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
