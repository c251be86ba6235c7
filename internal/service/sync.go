// Package service wires configuration, transport, state, and the sync
// engine into the operations the CLI exposes.
package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ardietz/confsync/internal/config"
	"github.com/ardietz/confsync/internal/convert"
	"github.com/ardietz/confsync/internal/core/engine"
	"github.com/ardietz/confsync/internal/core/walker"
	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/lock"
	"github.com/ardietz/confsync/internal/logger"
	"github.com/ardietz/confsync/internal/progress"
	"github.com/ardietz/confsync/internal/remote"
	"github.com/ardietz/confsync/internal/remote/confluence"
	"github.com/ardietz/confsync/internal/state"
)

// SyncService orchestrates sync runs
type SyncService struct {
	config   *config.Config
	remote   remote.Service
	store    *state.Manager
	lock     *lock.FileLock
	reporter progress.Reporter
}

// NewSyncService creates a service from validated configuration.
// The Confluence connection is established lazily on the first run.
func NewSyncService(cfg *config.Config) (*SyncService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// The lock lives beside the state database so concurrent runs
	// against the same state always see each other
	fileLock, err := lock.NewFileLock(filepath.Dir(cfg.State.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to create file lock: %w", err)
	}

	return &SyncService{
		config: cfg,
		lock:   fileLock,
	}, nil
}

// SetProgressReporter sets the progress reporter for sync runs
func (s *SyncService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

func (s *SyncService) getReporter() progress.Reporter {
	if s.reporter != nil {
		return s.reporter
	}
	return progress.NullReporter{}
}

// IsLocked checks if another sync run is in progress
func (s *SyncService) IsLocked() bool {
	return s.lock.IsLocked()
}

// GetLockHolder returns information about the current lock holder
func (s *SyncService) GetLockHolder() (*lock.LockInfo, error) {
	return s.lock.GetHolder()
}

// ForceUnlock forcibly releases the lock (use with caution)
func (s *SyncService) ForceUnlock() error {
	return s.lock.ForceRelease()
}

// getRemote returns or creates the Confluence client
func (s *SyncService) getRemote(ctx context.Context) (remote.Service, error) {
	if s.remote != nil {
		return s.remote, nil
	}

	cc := s.config.Confluence
	client, err := confluence.New(ctx, confluence.Config{
		BaseURL:         cc.BaseURL,
		Username:        cc.Username,
		APIToken:        cc.APIToken,
		BearerToken:     cc.BearerToken,
		SpaceKey:        cc.SpaceKey,
		RestrictedGroup: cc.RestrictedGroup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to confluence: %w", err)
	}

	s.remote = client
	return s.remote, nil
}

// getStore returns or opens the state database
func (s *SyncService) getStore() (*state.Manager, error) {
	if s.store != nil {
		return s.store, nil
	}

	manager, err := state.NewManager(s.config.State.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	s.store = manager
	return s.store, nil
}

// Run performs one full sync of the configured source directory.
// It holds the file lock for the duration of the run and records the
// outcome in the run history.
func (s *SyncService) Run(ctx context.Context) (*domain.SyncReport, error) {
	log := logger.With("component", "service")

	if err := s.lock.Acquire(s.config.Confluence.SpaceKey); err != nil {
		log.Error("failed to acquire sync lock", "error", err)
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Error("failed to release sync lock", "error", err)
		}
	}()

	log.Debug("walking source tree", "dir", s.config.Source.Dir)
	walked, err := walker.Walk(s.config.Source.Dir, s.config.DefaultPermission())
	if err != nil {
		log.Error("source tree walk failed", "dir", s.config.Source.Dir, "error", err)
		return nil, err
	}

	svc, err := s.getRemote(ctx)
	if err != nil {
		return nil, err
	}

	store, err := s.getStore()
	if err != nil {
		return nil, err
	}

	eng := engine.New(svc, convert.NewDocxConverter())
	eng.SetChecksumStore(store)
	eng.SetReporter(s.getReporter())

	report, err := eng.Run(ctx, walked.Nodes, s.config.Confluence.RootPageID)
	if err != nil {
		return nil, err
	}

	// Walk warnings come first; they predate anything the engine saw
	report.Warnings = append(walked.Warnings, report.Warnings...)

	if err := store.SaveRun(s.config.Confluence.SpaceKey, report); err != nil {
		log.Warn("failed to record run history", "run_id", report.RunID, "error", err)
	}

	return report, nil
}

// History returns the most recent run records
func (s *SyncService) History(limit int) ([]state.RunRecord, error) {
	store, err := s.getStore()
	if err != nil {
		return nil, err
	}
	return store.RecentRuns(limit)
}

// Close releases the transport and state database
func (s *SyncService) Close() error {
	var lastErr error
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			lastErr = err
		}
		s.remote = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			lastErr = err
		}
		s.store = nil
	}
	return lastErr
}

var _ io.Closer = (*SyncService)(nil)
