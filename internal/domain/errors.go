package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrEmbeddingUnavailable signals an embedding provider failure
	// (network, auth, quota). Build and append paths must propagate it;
	// query-time retrieval degrades to an empty result instead.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGeneratorUnavailable signals a language model failure or a missing
	// credential detected at construction time.
	ErrGeneratorUnavailable = errors.New("language model unavailable")

	// ErrModelMismatch signals that a persisted index was built with a
	// different embedding model than the one configured now. Querying such
	// an index would produce meaningless similarity scores, so loading
	// fails loudly instead.
	ErrModelMismatch = errors.New("index embedding model mismatch")

	// ErrDimensionMismatch signals vectors of inconsistent length reaching
	// the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyTranscript signals an archive request with no turns.
	ErrEmptyTranscript = errors.New("transcript is empty")
)
