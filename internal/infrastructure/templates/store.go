package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/pkg/safego"
)

// templateFile is the YAML layout of the reply template file.
type templateFile struct {
	NameFallback string                       `yaml:"name_fallback"`
	Prefix       map[string]string            `yaml:"prefix"`
	Replies      map[string]map[string]string `yaml:"replies"`
}

// Store loads the reply template file and serves the active set.
// With hot reload enabled it watches the file and swaps the set when
// staff save an edit; a file that fails to parse or validate keeps the
// previous good set in place.
type Store struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.RWMutex
	current service.ReplyTemplates
}

// NewStore reads the template file at path. hotReload controls whether
// a file watcher is created; StartWatching activates it.
func NewStore(path string, hotReload bool, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	if hotReload {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create template watcher: %w", err)
		}
		s.watcher = watcher
	}

	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Templates returns the active set. Implements service.TemplateSource.
func (s *Store) Templates() service.ReplyTemplates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads and validates the file, swapping the active set on
// success and leaving it untouched on failure.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", s.path, err)
	}

	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse template file %s: %w", s.path, err)
	}

	set := toDomain(f)
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid template file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = set
	s.mu.Unlock()
	return nil
}

// StartWatching begins hot reload. Editors usually replace the file on
// save (rename + create), so the parent directory is watched instead of
// the file itself.
func (s *Store) StartWatching(ctx context.Context) error {
	if s.watcher == nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch template dir: %w", err)
	}

	safego.Go(s.logger, "template-watcher", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-s.watcher.Events:
				if !ok {
					return
				}
				s.handleWatchEvent(event)
			case err, ok := <-s.watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("Template watcher error", zap.Error(err))
			}
		}
	})

	s.logger.Info("Reply template hot-reload started",
		zap.String("file", s.path),
	)
	return nil
}

func (s *Store) handleWatchEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(s.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if err := s.Reload(); err != nil {
		s.logger.Warn("Template reload failed, keeping previous set", zap.Error(err))
		return
	}
	s.logger.Info("Reply templates reloaded", zap.String("file", s.path))
}

// Close stops the watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func toDomain(f templateFile) service.ReplyTemplates {
	set := service.ReplyTemplates{
		NameFallback: f.NameFallback,
		Prefix:       make(map[valueobject.PatientStatus]string, len(f.Prefix)),
		Replies:      make(map[valueobject.IntentLabel]map[valueobject.PatientStatus]string, len(f.Replies)),
	}
	for status, text := range f.Prefix {
		set.Prefix[valueobject.PatientStatus(status)] = text
	}
	for label, byStatus := range f.Replies {
		m := make(map[valueobject.PatientStatus]string, len(byStatus))
		for status, text := range byStatus {
			m[valueobject.PatientStatus(status)] = text
		}
		set.Replies[valueobject.IntentLabel(label)] = m
	}
	return set
}
