package models

const (
	// Chunking defaults, in characters.
	DefaultChunkSize    = 700
	DefaultChunkOverlap = 200

	// DefaultTopK is how many chunks ground an answer or a quiz batch.
	DefaultTopK = 3
)

var (
	// AnswerPromptTemplate grounds the model in the retrieved context and asks
	// for a concise, direct answer. Fills: context, question.
	AnswerPromptTemplate = `Answer the question using only the context below.
- Respond to the question directly.
- Keep the answer concise, at most 5 lines.
- State the answer immediately, without preamble or meta commentary.

Context:
%s

Question: %s

Answer:`

	// QuizPromptTemplate asks for a strict JSON array of multiple-choice
	// items. Fills: number of questions, context.
	QuizPromptTemplate = `Create exactly %d multiple-choice questions from the context below.
Output a JSON array only, no prose, no markdown fences. Each element must be:
{"question": string, "choices": [four strings], "answer_index": integer 0-3}
The answer_index is the zero-based position of the correct choice.

Context:
%s`

	// QuizCoverageQuery is the representative retrieval query used when
	// generating quizzes: the goal is broad coverage, not a targeted lookup.
	QuizCoverageQuery = "summary of the main topics in this document"
)
