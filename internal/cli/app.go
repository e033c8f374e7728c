package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	githubadapter "github.com/ericfisherdev/reviewmarks/internal/adapter/driven/github"
	"github.com/ericfisherdev/reviewmarks/internal/adapter/driven/markers"
	sqliteadapter "github.com/ericfisherdev/reviewmarks/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/reviewmarks/internal/application"
	"github.com/ericfisherdev/reviewmarks/internal/config"
)

// app holds the wired adapters and services shared by serve and import.
type app struct {
	db        *sqliteadapter.DB
	board     *markers.Board
	workspace *application.Workspace
	importer  *application.ImportService
	logger    *slog.Logger
}

// loadConfig reads the environment and installs the configured logger as the
// process default.
func loadConfig(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDB opens the database and brings its schema up to date.
func openDB(ctx context.Context, dbPath string, logger *slog.Logger) (*sqliteadapter.DB, uint, error) {
	db, err := sqliteadapter.NewDB(ctx, dbPath)
	if err != nil {
		return nil, 0, err
	}
	logger.Info("database opened", "path", dbPath)

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
		return nil, 0, err
	}
	logger.Info("migrations complete", "version", version)
	return db, version, nil
}

// openApp wires storage, the marker board, the GitHub client, and the
// workspace, then reloads every review that was open at last shutdown.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, _, err := openDB(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	reviewStore := sqliteadapter.NewReviewRepo(db)
	elementStore := sqliteadapter.NewElementRepo(db)
	board := markers.NewBoard(logger)

	workspace := application.NewWorkspace(reviewStore, elementStore, board, logger)

	if !cfg.HasGitHubToken() {
		logger.Warn("REVIEWMARKS_GITHUB_TOKEN not set, pull request imports are unauthenticated")
	}
	importer := application.NewImportService(githubadapter.NewClient(cfg.GitHubToken), workspace, logger)

	a := &app{
		db:        db,
		board:     board,
		workspace: workspace,
		importer:  importer,
		logger:    logger,
	}

	restored, err := workspace.RestoreOpenReviews(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	logger.Info("workspace ready", "open_reviews", restored)
	return a, nil
}

// Close releases the database handles.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}
