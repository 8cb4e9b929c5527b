package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the YAML overlay file and hot-reloads the runtime-tunable
// settings (active domains and relationship weights). Static settings such
// as credentials and timeouts never change after startup.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  Domains
	mu       sync.RWMutex
	onChange []func(Domains)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewWatcher creates a watcher seeded with the current domain settings.
func NewWatcher(path string, initial Domains, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory rather than the file itself so atomic saves
	// (write to temp file, rename over) are still observed.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  watcher,
		current:  initial,
		onChange: make([]func(Domains), 0),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(handler func(Domains)) {
	w.onChange = append(w.onChange, handler)
}

// Domains returns the domain settings currently in effect.
func (w *Watcher) Domains() Domains {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for configuration changes.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Configuration watcher stopped")
}

func (w *Watcher) watchLoop() {
	// Debounce so editors that fire multiple events per save cause one reload.
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the overlay file and applies it, keeping the previous
// settings when the new file is unreadable or out of range.
func (w *Watcher) reload() {
	w.logger.Info("Configuration file changed, reloading", zap.String("path", w.path))

	overlay, err := readOverlay(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}

	w.mu.Lock()
	next := w.current
	if len(overlay.ActiveDomains) > 0 {
		next.ActiveDomains = overlay.ActiveDomains
	}
	if len(overlay.RelationshipWeights) > 0 {
		next.RelationshipWeights = overlay.RelationshipWeights
	}
	if err := validateDomains(next); err != nil {
		w.mu.Unlock()
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}
	w.current = next
	w.mu.Unlock()

	for _, handler := range w.onChange {
		go handler(next)
	}

	w.logger.Info("Configuration reloaded",
		zap.Strings("active_domains", next.ActiveDomains),
		zap.Int("relationship_weights", len(next.RelationshipWeights)),
	)
}

func validateDomains(d Domains) error {
	cfg := defaultConfig()
	cfg.Domains = d
	return cfg.Validate()
}
