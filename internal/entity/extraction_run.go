package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRun tracks one clear-then-repopulate extraction pass over a
// document, for data transfer between layers.
type ExtractionRun struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	Status       string     `json:"status"`
	RuleFacts    int        `json:"rule_facts"`
	LLMFacts     int        `json:"llm_facts"`
	BlocksTotal  int        `json:"blocks_total"`
	BlocksToLLM  int        `json:"blocks_to_llm"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Document is a stored source document (raw markdown plus parse-level
// metadata), for data transfer between layers.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	DocCode     *string   `json:"doc_code,omitempty"`
	RawText     string    `json:"raw_text"`
	TotalBlocks int       `json:"total_blocks"`
	ErrorBlocks int       `json:"error_blocks"`
	CreatedAt   time.Time `json:"created_at"`
}
