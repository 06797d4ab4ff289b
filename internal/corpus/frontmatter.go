package corpus

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ansa/internal/logger"
)

// frontMatter is the YAML attribution block at the top of a corpus
// file, delimited by "---" lines.
type frontMatter struct {
	Title     string   `yaml:"title"`
	SourceURL string   `yaml:"source_url"`
	Category  string   `yaml:"category"`
	Tags      []string `yaml:"tags"`
}

const frontMatterDelim = "---\n"

// parseFrontMatter splits a document into its front matter and body.
// Files without front matter, and files whose front matter does not
// parse, yield empty metadata and the full text as body.
func parseFrontMatter(text string) (frontMatter, string) {
	var meta frontMatter

	raw, body, ok := splitFrontMatter(text)
	if !ok {
		return meta, text
	}

	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		logger.Warn("Ignoring malformed front matter: %v", err)
		return frontMatter{}, body
	}
	return meta, body
}

// splitFrontMatter finds the front matter block. The opening delimiter
// must be the very first line; the block runs to the next "---" line.
func splitFrontMatter(text string) (raw, body string, ok bool) {
	if !strings.HasPrefix(text, frontMatterDelim) {
		return "", text, false
	}

	rest := text[len(frontMatterDelim):]
	if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
		return rest[:idx], rest[idx+len("\n---\n"):], true
	}
	if strings.HasSuffix(rest, "\n---") {
		return strings.TrimSuffix(rest, "\n---"), "", true
	}

	// An unclosed opening delimiter is just a horizontal rule.
	return "", text, false
}
