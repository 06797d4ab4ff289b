package domain

import "time"

// MinScore is the cosine similarity floor, reported as the top score
// when a query retrieves nothing.
const MinScore = -1.0

// Passage is one retrieved chunk with its similarity score.
type Passage struct {
	// Chunk is the retrieved chunk, hydrated with text and metadata.
	Chunk Chunk

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

// Retrieval is the outcome of embedding a question and searching the
// vector index: the passages found and the confidence decision.
type Retrieval struct {
	// Passages are the top matches, descending by score,
	// ties broken by chunk ID ascending.
	Passages []Passage

	// TopScore is the best similarity found, or MinScore when
	// nothing was retrieved.
	TopScore float64

	// Threshold is the confidence threshold the decision used.
	Threshold float64

	// Confident is true when TopScore >= Threshold. The boundary
	// is inclusive: a score exactly at the threshold qualifies.
	Confident bool
}

// Source attributes part of an answer to an indexed document.
type Source struct {
	// DocID is the cited document.
	DocID string

	// Title is the cited document's title.
	Title string

	// SourceURL is the cited document's canonical location, if any.
	SourceURL string

	// Score is the best similarity among the document's retrieved chunks.
	Score float64
}

// Suggestion points at a passage worth reading when no confident
// answer exists.
type Suggestion struct {
	// Title is the suggested document's title.
	Title string

	// SourceURL is the suggested document's canonical location, if any.
	SourceURL string

	// Snippet is a short word-safe excerpt of the matched chunk.
	Snippet string

	// Score is the passage's similarity to the question.
	Score float64
}

// QueryResult is the answer boundary contract. It has two shapes,
// discriminated by Answer:
//
//   - confident: Answer set, Sources populated from retrieved metadata
//   - low confidence: Answer nil, Suggestions and Rephrases populated,
//     or Redirect set when the question is out of the corpus's domain
//
// Strict is always true: answers are only ever grounded in retrieved
// passages, never in the generation model's general knowledge.
type QueryResult struct {
	// Answer is the structured answer text, nil when no confident
	// match exists.
	Answer *string

	// Sources are the documents the answer is grounded in,
	// deduplicated by document and ordered by first-appearance rank.
	// Empty when Answer is nil.
	Sources []Source

	// Suggestions are passages worth reading, set only on the
	// low-confidence shape.
	Suggestions []Suggestion

	// Rephrases are alternative phrasings of the question, offered to
	// widen retrieval. Never answers.
	Rephrases []string

	// Redirect is a polite redirection message, set only when the
	// question falls outside the corpus's domain.
	Redirect string

	// TopScore is the best similarity the retrieval found.
	TopScore float64

	// Threshold is the confidence threshold in force for this query.
	Threshold float64

	// Strict records that the grounding contract was enforced.
	Strict bool
}

// Answered reports whether the result carries a confident answer.
func (r QueryResult) Answered() bool {
	return r.Answer != nil
}

// Miss records a question the corpus could not answer confidently.
// Misses are appended to a log for corpus curation.
type Miss struct {
	// ID uniquely identifies the miss record.
	ID string

	// Question is the question as asked.
	Question string

	// TopScore is the best similarity the retrieval found.
	TopScore float64

	// Threshold is the confidence threshold in force at the time.
	Threshold float64

	// AskedAt is when the question was asked.
	AskedAt time.Time
}

// Stats summarises index health for status reporting.
type Stats struct {
	// DocumentCount is the number of registered documents.
	DocumentCount int

	// VectorCount is the number of chunk vectors in the index.
	VectorCount int

	// LastIndexed is the most recent successful index time across
	// all documents. Zero when nothing has been indexed.
	LastIndexed time.Time

	// Threshold is the active confidence threshold.
	Threshold float64

	// TopK is the active retrieval depth.
	TopK int
}

// RetrievalSettings are the runtime-tunable retrieval knobs.
type RetrievalSettings struct {
	// Threshold is the confidence threshold in [0, 1].
	Threshold float64

	// TopK is the number of passages retrieved per query.
	TopK int

	// RefusalFloor is the score below which a question is treated as
	// out of the corpus's domain. Must not exceed Threshold.
	RefusalFloor float64
}

// Validate checks the settings are internally consistent.
func (s RetrievalSettings) Validate() error {
	if s.Threshold < 0 || s.Threshold > 1 {
		return ErrInvalidInput
	}
	if s.TopK < 1 {
		return ErrInvalidInput
	}
	if s.RefusalFloor < 0 || s.RefusalFloor > s.Threshold {
		return ErrInvalidInput
	}
	return nil
}
