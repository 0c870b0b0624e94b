package models

// Page is one page (or page-like unit: slide, sheet) of extracted document text.
type Page struct {
	Number int
	Text   string
}

// Chunk is the unit of retrieval: a bounded span of extracted text with its
// provenance. ID is zero until the chunk is inserted into an index; the index
// assigns ids sequentially in append order.
type Chunk struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	PageNumber int    `json:"page_number,omitempty"` // 1-based, 0 means unknown
	CharStart  int    `json:"char_start,omitempty"`
	CharEnd    int    `json:"char_end,omitempty"`
	Locator    string `json:"locator,omitempty"` // e.g. path to the stored source file
}

// RetrievedChunk pairs a chunk with its similarity score.
type RetrievedChunk struct {
	Chunk Chunk
	Score float32
}

// Source is one citation entry of an answer, mirroring a retrieved chunk.
type Source struct {
	Document   string `json:"document"`
	PageNumber int    `json:"page_number,omitempty"`
	Text       string `json:"text"`
	Locator    string `json:"locator,omitempty"`
}

// Answer is the transient result of one question: generated text plus the
// retrieved chunks it was grounded on, in retrieval order.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// QuizItem is one multiple-choice question. ID is assigned by the quiz store
// when a generated batch is appended, continuing from the stored maximum.
type QuizItem struct {
	ID          int      `json:"id"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
}
