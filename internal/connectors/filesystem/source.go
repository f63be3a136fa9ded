// Package filesystem reads the corpus from one flat directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// ErrSourceClosed is returned by Watch after Close.
var ErrSourceClosed = errors.New("document source closed")

// Config configures the directory source.
type Config struct {
	// Dir is the corpus directory.
	Dir string

	// CreateMissing creates Dir when it does not exist.
	CreateMissing bool

	// Include limits loading to file names matching any doublestar pattern.
	Include []string

	// Exclude skips file names matching any doublestar pattern.
	Exclude []string

	// MaxFileBytes skips larger files. Zero disables the limit.
	MaxFileBytes int64
}

// ConfigFromSettings builds a Config from corpus settings.
func ConfigFromSettings(s domain.CorpusSettings) Config {
	return Config{
		Dir:           s.Dir,
		CreateMissing: s.CreateMissing,
		Include:       s.Include,
		Exclude:       s.Exclude,
		MaxFileBytes:  s.MaxFileBytes,
	}
}

// Source loads every regular file directly inside a directory.
// Sub-directories are not descended into and hidden files are ignored.
type Source struct {
	cfg        Config
	normaliser driven.Normaliser

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a directory source. The normaliser turns file bytes into documents.
func New(cfg Config, normaliser driven.Normaliser) *Source {
	return &Source{
		cfg:        cfg,
		normaliser: normaliser,
	}
}

// Dir returns the corpus directory.
func (s *Source) Dir() string {
	return s.cfg.Dir
}

// Load reads all documents in the directory, sorted by path.
// A missing directory is logged and yields no documents and no error.
// Files that cannot be read or decoded are logged, reported and skipped.
func (s *Source) Load(ctx context.Context) ([]domain.Document, domain.LoadReport, error) {
	report := domain.LoadReport{Dir: s.cfg.Dir}

	entries, err := os.ReadDir(s.cfg.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		report.Missing = true
		logger.Error("corpus directory %s does not exist", s.cfg.Dir)
		if s.cfg.CreateMissing {
			if mkErr := os.MkdirAll(s.cfg.Dir, 0o755); mkErr != nil {
				logger.Error("create corpus directory %s: %v", s.cfg.Dir, mkErr)
			} else {
				report.Created = true
				logger.Info("created corpus directory %s", s.cfg.Dir)
			}
		}
		return nil, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read corpus directory: %w", err)
	}

	// os.ReadDir returns entries sorted by file name.
	docs := make([]domain.Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		name := entry.Name()
		if isHidden(name) || !s.selected(name) {
			continue
		}

		path := filepath.Join(s.cfg.Dir, name)
		doc, skip := s.loadFile(ctx, path, name)
		if skip != nil {
			logger.Error("skipping %s: %s", skip.Path, skip.Reason)
			report.Skipped = append(report.Skipped, *skip)
			continue
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
	}

	logger.Debug("loaded %d documents from %s (%d skipped)", len(docs), s.cfg.Dir, len(report.Skipped))
	return docs, report, nil
}

// loadFile reads one entry. It returns (nil, nil) for entries that are
// silently ignored, such as directories.
func (s *Source) loadFile(ctx context.Context, path, name string) (*domain.Document, *domain.SkippedFile) {
	// Stat follows symlinks, so links to regular files load and links to directories do not.
	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.SkippedFile{Path: path, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	if s.cfg.MaxFileBytes > 0 && info.Size() > s.cfg.MaxFileBytes {
		return nil, &domain.SkippedFile{
			Path:   path,
			Reason: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), s.cfg.MaxFileBytes),
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.SkippedFile{Path: path, Reason: err.Error()}
	}

	result, err := s.normaliser.Normalise(ctx, &domain.RawDocument{
		Path:     path,
		MIMEType: detectMIMEType(name),
		Content:  content,
		ModTime:  info.ModTime(),
		Metadata: map[string]any{"file_name": name},
	})
	if err != nil {
		return nil, &domain.SkippedFile{Path: path, Reason: err.Error()}
	}
	return &result.Document, nil
}

// selected applies the include and exclude patterns to a file name.
func (s *Source) selected(name string) bool {
	if len(s.cfg.Include) > 0 && !matchAny(s.cfg.Include, name) {
		return false
	}
	return !matchAny(s.cfg.Exclude, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Watch emits one change per relevant filesystem event in the directory.
// The channel is closed when ctx is cancelled or the source is closed.
func (s *Source) Watch(ctx context.Context) (<-chan domain.CorpusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}

	info, err := os.Stat(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", s.cfg.Dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.cfg.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.cfg.Dir, err)
	}
	s.watchers = append(s.watchers, watcher)

	changes := make(chan domain.CorpusChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := s.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watch %s: %v", s.cfg.Dir, err)
			}
		}
	}()

	return changes, nil
}

// handleFsEvent maps a filesystem event to a corpus change.
// It returns nil for events that cannot affect the loaded document set.
func (s *Source) handleFsEvent(event fsnotify.Event) *domain.CorpusChange {
	name := filepath.Base(event.Name)
	if isHidden(name) || !s.selected(name) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return &domain.CorpusChange{Type: domain.ChangeDeleted, Path: event.Name}
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Op.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.CorpusChange{Type: changeType, Path: event.Name}
	default:
		return nil
	}
}

// Close stops all watchers. Safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.watchers = nil
	return errors.Join(errs...)
}

// isHidden reports whether a file name starts with a dot.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// fallbackMIMETypes covers text formats the platform MIME table often lacks.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".rst":      "text/x-rst",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".log":      "text/plain",
}

// detectMIMEType guesses the content type from the file extension.
// Files without an extension are treated as plain text.
func detectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if mt, ok := fallbackMIMETypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
		return strings.TrimSpace(mt)
	}
	return "application/octet-stream"
}
