package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mmcdole/flatsync/internal/config"
	"github.com/mmcdole/flatsync/internal/download"
	"github.com/mmcdole/flatsync/internal/homework"
	"github.com/mmcdole/flatsync/internal/mathflat"
	"github.com/mmcdole/flatsync/internal/offline"
	"github.com/mmcdole/flatsync/internal/store"
)

// app is the composition root shared by every command
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	client    *mathflat.Client
	snapshots *store.SnapshotStore
	images    *store.ImageStore
	answers   *store.AnswerStore
	manager   *offline.Manager
	homework  *homework.Service
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	client := mathflat.NewClient(cfg.API.BaseURL, logger)

	// Caches from different API hosts never mix
	root := store.ScopedDir(cfg.Cache.Dir, client.BaseURL())

	snapshots, err := store.NewSnapshotStore(filepath.Join(root, "data"))
	if err != nil {
		return nil, err
	}

	images, err := store.NewImageStore(filepath.Join(root, "images"), nil, logger)
	if err != nil {
		return nil, err
	}

	answers, err := store.NewAnswerStore(filepath.Join(root, "flatsync.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open answer store: %w", err)
	}

	scheduler := download.NewScheduler(images, download.Options{
		Concurrency: cfg.Sync.Concurrency,
		Timeout:     cfg.Sync.DownloadTimeout,
		Logger:      logger,
	})

	manager := offline.NewManager(offline.Options{
		Client:    client,
		Snapshots: snapshots,
		Images:    images,
		Scheduler: scheduler,
		Reports:   answers,
		IdleDelay: cfg.Sync.IdleDelay,
		Logger:    logger,
	})

	svc := homework.NewService(homework.Options{
		Client:     client,
		Snapshots:  snapshots,
		Answers:    answers,
		RelationID: cfg.API.RelationID,
		WindowDays: cfg.Sync.WindowDays,
		Logger:     logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		snapshots: snapshots,
		images:    images,
		answers:   answers,
		manager:   manager,
		homework:  svc,
	}, nil
}

// Close stops any running sync and closes the answer store
func (a *app) Close() error {
	return errors.Join(a.manager.Close(), a.answers.Close())
}

func (a *app) requireConfigured() error {
	if !a.cfg.IsConfigured() {
		return errors.New("api.token and api.relation_id must be set (config file, FLATSYNC_API_TOKEN, FLATSYNC_API_RELATION_ID)")
	}
	return nil
}
