package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaterialFact is one extracted bill-of-materials line item before
// aggregation. RawName is the only required field; CanonicalKey is always
// backfilled before persistence. LLM-origin facts must carry a SourceSnippet
// quote or they are rejected at the gateway.
type MaterialFact struct {
	RawName       string   `json:"raw_name"`
	CanonicalName *string  `json:"canonical_name,omitempty"`
	CanonicalKey  *string  `json:"canonical_key,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	Mark          *string  `json:"mark,omitempty"`
	GOST          *string  `json:"gost,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Note          *string  `json:"note,omitempty"`
	SourceSnippet *string  `json:"source_snippet,omitempty"`
	Confidence    float32  `json:"confidence,omitempty"`
}

// DefaultConfidence is assumed when the model omits a confidence score.
const DefaultConfidence float32 = 0.8

// StoredFact is a persisted material fact with its provenance row metadata,
// for data transfer between layers.
type StoredFact struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	BlockUID   string    `json:"block_uid"`
	Source     string    `json:"source"` // rule_based | llm
	MaterialFact
	CreatedAt time.Time `json:"created_at"`
}
