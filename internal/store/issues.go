package store

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
)

// issue date columns: issue_number,date
const issueColumns = 2

var issueDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// IssueDateMapping serves the issue-number to reference-date lookup from a
// CSV file, cached in memory. An fsnotify watcher invalidates the cache
// when the file changes on disk.
type IssueDateMapping struct {
	path     string
	location *time.Location
	logger   logger.Logger

	mu      sync.RWMutex
	cache   map[int]time.Time
	watcher *fsnotify.Watcher
}

func NewIssueDateMapping(path string, location *time.Location, log logger.Logger) *IssueDateMapping {
	return &IssueDateMapping{
		path:     path,
		location: location,
		logger:   log,
	}
}

// DateOf resolves an issue number to its reference instant.
func (m *IssueDateMapping) DateOf(issue int) (time.Time, bool) {
	mapping, err := m.mapping()
	if err != nil {
		m.logger.Error("Failed to load issue date mapping",
			logger.String("path", m.path),
			logger.Error(err),
		)
		return time.Time{}, false
	}
	date, ok := mapping[issue]
	return date, ok
}

// All returns the full mapping.
func (m *IssueDateMapping) All() (map[int]time.Time, error) {
	return m.mapping()
}

// Watch starts invalidating the cache whenever the mapping file changes.
// The watcher observes the parent directory so file replacement (the usual
// save pattern of spreadsheet tools) is caught too.
func (m *IssueDateMapping) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(m.path), err)
	}
	m.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(m.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					m.invalidate()
					m.logger.Info("Issue date mapping changed, cache invalidated",
						logger.String("path", m.path),
					)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("Issue date mapping watcher error", logger.Error(watchErr))
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running.
func (m *IssueDateMapping) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

func (m *IssueDateMapping) invalidate() {
	m.mu.Lock()
	m.cache = nil
	m.mu.Unlock()
}

func (m *IssueDateMapping) mapping() (map[int]time.Time, error) {
	m.mu.RLock()
	cached := m.cache
	m.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	loaded, err := m.load()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache = loaded
	m.mu.Unlock()
	return loaded, nil
}

func (m *IssueDateMapping) load() (map[int]time.Time, error) {
	_, rows, err := readTable(m.path)
	if err != nil {
		return nil, err
	}

	mapping := make(map[int]time.Time, len(rows))
	for _, row := range rows {
		if len(row) < issueColumns {
			continue
		}
		issue, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			m.logger.Warn("Skipping issue mapping row with bad issue number",
				logger.String("value", row[0]),
			)
			continue
		}
		date, err := m.parseDate(strings.TrimSpace(row[1]))
		if err != nil {
			m.logger.Warn("Skipping issue mapping row with bad date",
				logger.Int("issue", issue),
				logger.String("value", row[1]),
			)
			continue
		}
		mapping[issue] = date
	}
	return mapping, nil
}

func (m *IssueDateMapping) parseDate(value string) (time.Time, error) {
	for _, layout := range issueDateLayouts {
		if t, err := time.ParseInLocation(layout, value, m.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
