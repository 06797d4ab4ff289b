package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Generation options per prompt kind. Answers stay close to the
// grounding context; rephrases benefit from some variety.
const (
	answerMaxTokens      = 700
	answerTemperature    = 0.2
	rephraseMaxTokens    = 150
	rephraseTemperature  = 0.7
	maxSuggestions       = 3
	maxRephrases         = 3
	suggestionSnippetLen = 200
)

// Composer turns a retrieval into the response contract: a grounded
// answer with programmatic source attribution on the confident path,
// suggestions and rephrases on the low-confidence path, and a polite
// redirection when the question falls outside the corpus's domain.
//
// The generation service is only ever invoked with retrieved passages
// as grounding context, or for explicitly-labelled rephrase
// suggestions. It is never asked to name sources and never asked to
// answer from its general knowledge.
type Composer struct {
	generator driven.GenerationService
	prompts   driven.PromptStore
	misses    driven.MissLog
	settings  driving.SettingsService
}

// NewComposer creates a new answer composer.
// The miss log is optional; nil disables miss recording.
func NewComposer(
	generator driven.GenerationService,
	prompts driven.PromptStore,
	misses driven.MissLog,
	settings driving.SettingsService,
) *Composer {
	return &Composer{
		generator: generator,
		prompts:   prompts,
		misses:    misses,
		settings:  settings,
	}
}

// Compose produces the query result for a finished retrieval.
//
// Generation failures on the confident path propagate wrapped around
// their domain sentinel: the caller must be able to tell "the model
// call broke" from "no confident match". On the low-confidence path a
// failed rephrase call degrades to no rephrases instead.
func (c *Composer) Compose(ctx context.Context, question string, ret domain.Retrieval) (domain.QueryResult, error) {
	if ret.Confident {
		return c.confidentAnswer(ctx, question, ret)
	}
	return c.lowConfidence(ctx, question, ret)
}

// confidentAnswer prompts the generator with the retrieved passages and
// appends the sources section programmatically. The prompt forbids the
// model from producing links or a sources section of its own, so every
// citation traces back to a retrieved chunk.
func (c *Composer) confidentAnswer(ctx context.Context, question string, ret domain.Retrieval) (domain.QueryResult, error) {
	logger.Section("Answer Composition")

	template, err := c.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("load answer prompt: %w", err)
	}

	grounding := buildGroundingContext(ret.Passages)
	prompt := fmt.Sprintf(template, grounding, question)
	logger.Debug("Grounding context: %d passages, %d bytes", len(ret.Passages), len(grounding))

	prose, err := c.generator.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return domain.QueryResult{}, fmt.Errorf("generate answer: %w", err)
	}

	sources := sourcesFromPassages(ret.Passages)
	answer := strings.TrimSpace(prose) + "\n\n" + renderSources(sources)
	logger.Info("Composed answer with %d sources", len(sources))

	return domain.QueryResult{
		Answer:    &answer,
		Sources:   sources,
		TopScore:  ret.TopScore,
		Threshold: ret.Threshold,
		Strict:    true,
	}, nil
}

// lowConfidence returns suggestions and rephrases instead of an answer,
// or a redirection when the best score sits below the refusal floor.
// Every low-confidence query is appended to the miss log.
func (c *Composer) lowConfidence(ctx context.Context, question string, ret domain.Retrieval) (domain.QueryResult, error) {
	logger.Section("Low Confidence")
	logger.Info("Top score %.4f below threshold %.2f", ret.TopScore, ret.Threshold)

	c.recordMiss(ctx, question, ret)

	result := domain.QueryResult{
		Answer:    nil,
		Sources:   []domain.Source{},
		TopScore:  ret.TopScore,
		Threshold: ret.Threshold,
		Strict:    true,
	}

	settings, err := c.settings.Get()
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("load retrieval settings: %w", err)
	}

	if ret.TopScore < settings.RefusalFloor {
		// Out of the corpus's domain: redirect politely. The generator
		// is not consulted, so nothing can be answered from its general
		// knowledge.
		logger.Info("Top score below refusal floor %.2f: redirecting", settings.RefusalFloor)
		redirect, err := c.prompts.Load(driven.PromptRefusal)
		if err != nil {
			return domain.QueryResult{}, fmt.Errorf("load refusal prompt: %w", err)
		}
		result.Redirect = strings.TrimSpace(redirect)
		result.Suggestions = []domain.Suggestion{}
		return result, nil
	}

	result.Suggestions = suggestionsFromPassages(ret.Passages, maxSuggestions)
	result.Rephrases = c.rephrases(ctx, question, maxRephrases)
	logger.Info("Returning %d suggestions, %d rephrases", len(result.Suggestions), len(result.Rephrases))

	return result, nil
}

// rephrases asks the generator for alternative phrasings. Best effort:
// a generation failure here degrades to no rephrases so the suggestions
// still go out.
func (c *Composer) rephrases(ctx context.Context, question string, n int) []string {
	template, err := c.prompts.Load(driven.PromptRephrase)
	if err != nil {
		logger.Warn("Rephrase prompt unavailable: %v", err)
		return nil
	}

	raw, err := c.generator.Generate(ctx, fmt.Sprintf(template, n, question), driven.GenerateOptions{
		MaxTokens:   rephraseMaxTokens,
		Temperature: rephraseTemperature,
	})
	if err != nil {
		logger.Warn("Rephrase generation failed: %v", err)
		return nil
	}

	return parseRephrases(raw, n)
}

// recordMiss appends the question to the miss log for corpus curation.
// A write failure is logged, never surfaced to the caller.
func (c *Composer) recordMiss(ctx context.Context, question string, ret domain.Retrieval) {
	if c.misses == nil {
		return
	}
	miss := domain.Miss{
		ID:        uuid.New().String(),
		Question:  question,
		TopScore:  ret.TopScore,
		Threshold: ret.Threshold,
		AskedAt:   time.Now().UTC(),
	}
	if err := c.misses.Record(ctx, miss); err != nil {
		logger.Warn("Miss log write failed: %v", err)
	}
}

// buildGroundingContext renders retrieved passages into the prompt's
// context blocks: attribution header lines, a rule, then the text.
func buildGroundingContext(passages []domain.Passage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		var b strings.Builder
		title := p.Chunk.Meta.Title
		if title == "" {
			title = p.Chunk.DocumentID
		}
		fmt.Fprintf(&b, "Title: %s\n", title)
		if p.Chunk.Meta.SourceURL != "" {
			fmt.Fprintf(&b, "URL: %s\n", p.Chunk.Meta.SourceURL)
		}
		if len(p.Chunk.Meta.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Chunk.Meta.Tags, ", "))
		}
		if p.Chunk.Meta.Category != "" {
			fmt.Fprintf(&b, "Category: %s\n", p.Chunk.Meta.Category)
		}
		b.WriteString("---\n")
		b.WriteString(p.Chunk.Text)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// sourcesFromPassages builds the citation list from retrieved metadata:
// deduplicated by document, ordered by first-appearance rank, scored by
// the document's best chunk. The generator never contributes here.
func sourcesFromPassages(passages []domain.Passage) []domain.Source {
	seen := make(map[string]bool, len(passages))
	sources := make([]domain.Source, 0, len(passages))
	for _, p := range passages {
		if seen[p.Chunk.DocumentID] {
			continue
		}
		seen[p.Chunk.DocumentID] = true
		sources = append(sources, domain.Source{
			DocID:     p.Chunk.DocumentID,
			Title:     p.Chunk.Meta.Title,
			SourceURL: p.Chunk.Meta.SourceURL,
			Score:     p.Score,
		})
	}
	return sources
}

// renderSources renders the programmatic sources section appended to
// the generated prose.
func renderSources(sources []domain.Source) string {
	var b strings.Builder
	b.WriteString("Sources:")
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = s.DocID
		}
		if s.SourceURL != "" {
			fmt.Fprintf(&b, "\n- %s (%s)", title, s.SourceURL)
		} else {
			fmt.Fprintf(&b, "\n- %s", title)
		}
	}
	return b.String()
}

// suggestionsFromPassages turns the top passages into reading
// suggestions with short word-safe snippets.
func suggestionsFromPassages(passages []domain.Passage, limit int) []domain.Suggestion {
	suggestions := make([]domain.Suggestion, 0, limit)
	for _, p := range passages {
		if len(suggestions) == limit {
			break
		}
		title := p.Chunk.Meta.Title
		if title == "" {
			title = p.Chunk.DocumentID
		}
		suggestions = append(suggestions, domain.Suggestion{
			Title:     title,
			SourceURL: p.Chunk.Meta.SourceURL,
			Snippet:   snippet(p.Chunk.Text, suggestionSnippetLen),
			Score:     p.Score,
		})
	}
	return suggestions
}

// snippet truncates text to at most limit characters without cutting a
// word in half.
func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// parseRephrases extracts up to limit phrasings from a numbered-list
// response. Parsing is lenient: numbered lines, dash bullets and bare
// lines all count; blank lines are skipped.
func parseRephrases(raw string, limit int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)- ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}
