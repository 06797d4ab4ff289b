package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads generation prompts from a user-editable TOML file,
// falling back to compiled-in defaults for entries the file does not
// carry. Operators tune wording by editing prompts.toml; deleting an
// entry (or the whole file) restores the default.
//
// prompts.toml is created lazily on the first Load, never in the
// constructor.
type PromptStore struct {
	mu       sync.RWMutex
	filePath string
	cache    map[string]string
	initOnce sync.Once
	initErr  error
}

// defaultPrompts contains the compiled-in prompt templates. They seed
// prompts.toml on first use and serve as the fallback whenever the file
// is missing, unparsable or lacks an entry.
//
// The answer prompt must keep forbidding links and source sections:
// attribution is appended programmatically from retrieved metadata, and
// a model-invented citation would bypass that guarantee.
//
//nolint:lll // Prompt bodies keep their natural line length.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You are a support assistant for a product knowledge base. Answer strictly from the context below. If the context only partially covers the question, answer the covered part and say what is missing. Never answer from general knowledge.

Write two sections:

Summary: two or three sentences that answer the question directly.

How to apply: short numbered steps the reader can follow.

Do not include links or URLs. Do not add a sources or references section. Do not name the documents. Attribution is appended separately.

Context:
%s

Question: %s

Answer:`,

	driven.PromptRephrase: `Suggest %d alternative phrasings of the question below so it matches product documentation more closely. Keep each phrasing short and concrete. Fix obvious typos.
Return ONLY a numbered list, nothing else.

Question: %s
Phrasings:`,

	driven.PromptRefusal: `That question looks like it falls outside what this knowledge base covers. I can help with questions about the product's setup, configuration and day-to-day usage. Try rephrasing towards those topics, or browse the indexed documents to see what is available.`,
}

// promptOrder fixes the order entries appear in the seeded file.
var promptOrder = []string{driven.PromptAnswer, driven.PromptRephrase, driven.PromptRefusal}

// NewPromptStore creates a prompt store over configDir/prompts.toml.
// An empty configDir means ~/.ansa. No I/O happens here; the directory
// and file appear on the first Load.
func NewPromptStore(configDir string) (*PromptStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".ansa")
	}

	return &PromptStore{
		filePath: filepath.Join(configDir, "prompts.toml"),
		cache:    make(map[string]string),
	}, nil
}

// Load returns the prompt under name, preferring the cache, then the
// TOML file, then the compiled-in default. The first call seeds the
// file with the defaults.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	if prompt, ok := s.cached(name); ok {
		return prompt, nil
	}

	// No lock held during file I/O.
	prompt, err := s.loadFromFile(name)
	if err != nil {
		if fallback, ok := defaultPrompts[name]; ok {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// The first loader wins; a concurrent Load may have filled the
	// entry while this one was reading the file.
	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		prompt = existing
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

func (s *PromptStore) cached(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prompt, ok := s.cache[name]
	return prompt, ok
}

// Reload empties the cache so the next Load rereads prompts.toml.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Path returns the prompt file path.
func (s *PromptStore) Path() string {
	return s.filePath
}

// initialise creates the config directory and seeds prompts.toml with
// the defaults. Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		s.initErr = fmt.Errorf("create config directory: %w", err)
		return
	}

	// An existing file is the operator's; never overwrite it.
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		if err := os.WriteFile(s.filePath, []byte(defaultFileContent()), 0600); err != nil {
			s.initErr = fmt.Errorf("seed prompt file: %w", err)
		}
	}
}

// loadFromFile reads the TOML document and returns the named entry.
// Blank entries count as missing so the default takes over.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return "", err
	}

	var entries map[string]string
	if err := toml.Unmarshal(data, &entries); err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(s.filePath), err)
	}

	prompt, ok := entries[name]
	if !ok || strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("no %q entry", name)
	}
	return strings.TrimSpace(prompt), nil
}

// defaultFileContent renders the seeded prompts.toml: a commented header
// followed by each default as a multi-line literal string.
func defaultFileContent() string {
	var b strings.Builder
	b.WriteString("# Ansa prompt templates.\n")
	b.WriteString("#\n")
	b.WriteString("# Edit freely; changes take effect on the next command or after\n")
	b.WriteString("# restarting the server. Delete an entry to restore its default.\n")
	b.WriteString("#\n")
	b.WriteString("# Placeholders are Go fmt verbs and must keep their positions:\n")
	b.WriteString("#   answer:   %s retrieved context, %s question\n")
	b.WriteString("#   rephrase: %d how many phrasings, %s question\n")
	b.WriteString("#   refusal:  no placeholders\n")
	b.WriteString("#\n")
	b.WriteString("# The answer prompt must keep telling the model not to emit links or\n")
	b.WriteString("# a sources section: attribution is appended from the index, never\n")
	b.WriteString("# generated.\n")

	for _, name := range promptOrder {
		fmt.Fprintf(&b, "\n%s = '''\n%s\n'''\n", name, defaultPrompts[name])
	}
	return b.String()
}
