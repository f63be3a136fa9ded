package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk,
// falling back to built-in defaults.
//
// The prompt directory is created lazily on the first Load, not in
// the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written to disk on first use and used whenever a
// file is missing or unusable.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: "Context information is below.\n" +
		driven.PromptContextFence + "\n%s\n" + driven.PromptContextFence + "\n" +
		"Given the context information and not prior knowledge, answer the query.\n" +
		driven.PromptQueryPrefix + " %s\n" +
		"Answer:",
}

// placeholderCount is the number of %s verbs each prompt must carry.
var placeholderCount = map[string]int{
	driven.PromptAnswer: 2,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.docqa/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. A file whose
// placeholders do not match the default is logged and ignored.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	defaultPrompt, hasDefault := defaultPrompts[name]

	prompt, err := s.loadFromFile(name)
	switch {
	case err == nil && validTemplate(name, prompt):
	case err == nil:
		logger.Warn("prompt %s has the wrong placeholders, using built-in default", s.path(name))
		prompt = defaultPrompt
	case hasDefault:
		prompt = defaultPrompt
	case s.initErr != nil:
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if prompt == "" {
		return "", fmt.Errorf("load prompt %q: no usable template", name)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and any missing default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Debug("%v", s.initErr)
		return
	}
	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0o600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// validTemplate reports whether template formats cleanly with the
// number of string arguments its prompt receives.
func validTemplate(name, template string) bool {
	n, ok := placeholderCount[name]
	if !ok {
		return template != ""
	}
	args := make([]any, n)
	for i := range args {
		args[i] = "x"
	}
	return !strings.Contains(fmt.Sprintf(template, args...), "%!")
}
