// Package bootstrap handles application initialization and lifecycle
// management for the burst-tracker service.
package bootstrap

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/analysis"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/api"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/gateway"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/handlers"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/importer"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/store"
)

const version = "dev"

const issueMappingFile = "issue_date_mapping.csv"

// Start initializes and starts the burst-tracker application.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Storage (issue mapping with change watcher, summary tables)
	location, err := cfg.Analysis.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	issues := store.NewIssueDateMapping(filepath.Join(cfg.Storage.DataDir, issueMappingFile), location, log)
	if watchErr := issues.Watch(); watchErr != nil {
		log.Warn("Issue mapping watcher unavailable", logger.Error(watchErr))
	}
	defer func() {
		if closeErr := issues.Close(); closeErr != nil {
			log.Error("Failed to close issue mapping watcher", logger.Error(closeErr))
		}
	}()

	summaryStore := store.NewSummaryStore(cfg.Storage.DataDir, log)

	// Phase 3: Default work list
	works := loadWorkList(cfg, log)

	// Phase 4: Event publisher (optional) and analysis pipeline
	publisher := SetupEventPublisher(cfg, log)

	client, err := gateway.NewClient(cfg.Gateway, cfg.Analysis, log)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	analyzer := analysis.NewAnalyzer(client, cfg.Analysis.Interval(), log)
	runner := analysis.NewRunner(analyzer, issues, publisher, log)

	// Phase 5: HTTP server
	workSet := handlers.NewWorkSet(works)
	analysisHandler := handlers.NewAnalysisHandler(runner, summaryStore, workSet, cfg.Analysis.ReferenceIssue, publisher, log)
	worksHandler := handlers.NewWorksHandler(workSet, issues, cfg.Analysis.ReferenceIssue, log)

	router := api.NewRouter(cfg, analysisHandler, worksHandler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("Starting HTTP server",
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	if runErr := server.ListenAndServe(); runErr != nil && runErr != http.ErrServerClosed {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}

// loadWorkList reads the configured Excel work list. A missing or invalid
// file leaves the service running with an empty list; works can still be
// supplied per request or imported later.
func loadWorkList(cfg *config.Config, log logger.Logger) []models.Work {
	path := cfg.Storage.WorksFile
	if _, statErr := os.Stat(path); statErr != nil {
		log.Warn("Work list file not found, starting with empty list",
			logger.String("path", path),
		)
		return nil
	}

	works, importErrors, err := importer.ParseFile(path)
	if err != nil {
		log.Error("Failed to parse work list",
			logger.String("path", path),
			logger.Error(err),
		)
		return nil
	}
	for _, rowErr := range importErrors {
		log.Warn("Skipping invalid work list row",
			logger.Int("row", rowErr.Row),
			logger.String("reason", rowErr.Error),
		)
	}

	log.Info("Work list loaded",
		logger.String("path", path),
		logger.Int("works", len(works)),
	)
	return works
}
