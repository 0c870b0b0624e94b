package models

import "errors"

// Sentinel errors shared across the pipeline. Call sites wrap them with
// fmt.Errorf("...: %w", err) and callers test with errors.Is.
var (
	// ErrIndexNotFound means no index has ever been built at the resolved
	// location. User-recoverable: upload a document first.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDimensionMismatch means the persisted index was built with a
	// different embedding dimension. The index must be rebuilt, not patched.
	ErrDimensionMismatch = errors.New("index dimension mismatch")

	// ErrNamespaceNotFound means the chatbot namespace has no trained content.
	ErrNamespaceNotFound = errors.New("namespace has no trained content")

	// ErrParse means a source document could not be read. In a training batch
	// this is logged and skipped, not fatal to the other documents.
	ErrParse = errors.New("document could not be parsed")

	// ErrEmbedding means the embedding provider failed or was unreachable.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration means the text generation provider failed.
	ErrGeneration = errors.New("generation failed")

	// ErrGenerationTimeout means the generation call exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrMalformedGeneration means the generator's structured output failed
	// validation. Distinct from ErrGeneration so callers can re-prompt.
	ErrMalformedGeneration = errors.New("could not generate valid quiz content")
)
