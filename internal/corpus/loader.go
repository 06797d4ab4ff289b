package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.CorpusSource = (*Loader)(nil)

// DefaultExtensions are the file extensions loaded from the corpus.
var DefaultExtensions = []string{".md", ".markdown", ".txt"}

// ignoredDirs are directory names skipped anywhere in the tree.
var ignoredDirs = map[string]bool{
	"_assets": true,
}

// Loader reads corpus files into indexable submissions.
type Loader struct {
	root string
	exts map[string]bool
}

// Option configures the loader.
type Option func(*Loader)

// WithExtensions replaces the default set of loaded file extensions.
func WithExtensions(exts []string) Option {
	return func(l *Loader) {
		if len(exts) == 0 {
			return
		}
		l.exts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.exts[strings.ToLower(ext)] = true
		}
	}
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		root: dir,
		exts: make(map[string]bool, len(DefaultExtensions)),
	}
	for _, ext := range DefaultExtensions {
		l.exts[ext] = true
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the corpus root directory.
func (l *Loader) Root() string {
	return l.root
}

// LoadAll reads every corpus file under the root, in sorted path order.
// Unreadable files are skipped with a logged warning rather than
// aborting the walk.
func (l *Loader) LoadAll(ctx context.Context) ([]domain.Submission, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.root && (strings.HasPrefix(d.Name(), ".") || ignoredDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !l.supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", l.root, err)
	}
	sort.Strings(paths)

	subs := make([]domain.Submission, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sub, err := l.LoadFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping unreadable corpus file %s: %v", path, err)
			continue
		}
		subs = append(subs, sub)
	}
	logger.Debug("Loaded %d corpus files from %s", len(subs), l.root)
	return subs, nil
}

// LoadFile reads a single corpus file into a submission.
func (l *Loader) LoadFile(_ context.Context, path string) (domain.Submission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("read %s: %w", path, err)
	}

	meta, body := parseFrontMatter(string(raw))

	text := strings.TrimSpace(body)
	if isMarkdownPath(path) {
		text = stripMarkdown(body)
	}

	title := meta.Title
	if title == "" && isMarkdownPath(path) {
		title = firstHeading(body)
	}
	if title == "" {
		title = titleFromFilename(path)
	}

	sourceURL := meta.SourceURL
	if sourceURL == "" {
		if rel, err := filepath.Rel(l.root, path); err == nil {
			sourceURL = "/corpus/" + filepath.ToSlash(rel)
		}
	}

	return domain.Submission{
		DocID:     l.DocID(path),
		Title:     title,
		SourceURL: sourceURL,
		Category:  meta.Category,
		Tags:      meta.Tags,
		Text:      text,
	}, nil
}

// DocID derives the stable document ID for a corpus file path: the
// path relative to the root, extension stripped, lowercased, spaces
// and underscores slugged to hyphens.
func (l *Loader) DocID(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	slug := strings.ToLower(filepath.ToSlash(rel))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slug
}

// supported reports whether the loader indexes this file type.
func (l *Loader) supported(path string) bool {
	return l.exts[strings.ToLower(filepath.Ext(path))]
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// isHidden reports whether any path component is dot-prefixed.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// firstHeading returns the first H1 heading, if any.
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// titleFromFilename derives a readable title from the file name.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// markdownRules strip or rewrite markdown syntax, applied in order:
// fenced code first so its contents never match later rules, blank-run
// squeezing last so deletions above cannot reopen gaps.
var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("(?s)```[^`]*```"), ""},         // fenced code blocks
	{regexp.MustCompile("`[^`]+`"), ""},                 // inline code
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), ""},    // images
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"}, // links keep their text
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},          // heading markers
	{regexp.MustCompile(`(?m)^>\s*`), ""},               // blockquote markers
	{regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`), ""},      // horizontal rules
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},        // bullet markers
	{regexp.MustCompile(`(?m)^\s*\d+\.\s+`), ""},        // numbered-list markers
	{regexp.MustCompile(`\n{3,}`), "\n\n"},              // squeeze blank runs
}

// stripMarkdown reduces markdown to plain prose so chunks carry text
// rather than syntax. Emphasis markers are plain string replacements
// and run after the rules table; they would otherwise eat the asterisk
// bullets the table handles by line position.
func stripMarkdown(content string) string {
	for _, rule := range markdownRules {
		content = rule.re.ReplaceAllString(content, rule.repl)
	}
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")
	return strings.TrimSpace(content)
}
