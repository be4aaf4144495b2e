package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/extraction"
	"meddoc-backend/internal/ocr"
	"meddoc-backend/internal/ocr/formrecognizer"
	"meddoc-backend/internal/ocr/localtext"
	"meddoc-backend/internal/patients"
	"meddoc-backend/internal/pipeline"
	"meddoc-backend/internal/review"
	"meddoc-backend/internal/shared/config"
	"meddoc-backend/internal/shared/server"
	"meddoc-backend/internal/shared/storage/db"
	"meddoc-backend/internal/shared/storage/object"
	localstore "meddoc-backend/internal/shared/storage/object/local"
)

// App holds shared dependencies. Everything is built once and injected; no
// package reaches into process-wide state.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	TextExtractor   ocr.TextExtractor
	DocumentsRepo   documents.Repo
	PatientsRepo    patients.Repo
	Processor       *pipeline.Processor
	DocumentHandler *documents.Handler
	PipelineHandler *pipeline.Handler
	ReviewHandler   *review.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	textExtractor, err := buildTextExtractor(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		Store:         localstore.New(cfg.LocalStoreDir),
		TextExtractor: textExtractor,
	}

	if sqlDB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		app.PatientsRepo = &patients.PGRepo{DB: sqlDB}
	} else {
		memRepo := documents.NewMemoryRepo()
		app.DocumentsRepo = memRepo
		app.PatientsRepo = memRepo
	}

	app.Processor = pipeline.NewProcessor(app.DocumentsRepo, app.Store, app.TextExtractor, extraction.New())
	app.DocumentHandler = documents.NewHandler(app.DocumentsRepo)
	app.PipelineHandler = pipeline.NewHandler(app.Processor, app.DocumentsRepo)
	app.ReviewHandler = review.NewHandler(app.DocumentsRepo, app.Processor)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentHandler,
		PipelineHandler: app.PipelineHandler,
		ReviewHandler:   app.ReviewHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildTextExtractor(cfg config.Config) (ocr.TextExtractor, error) {
	switch cfg.OCRProvider {
	case "azure":
		return formrecognizer.NewClient(cfg.AzureEndpoint, cfg.AzureKey)
	default:
		return localtext.New(), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
