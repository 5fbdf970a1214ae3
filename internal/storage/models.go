package storage

import (
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/google/uuid"
)

// DocumentRecord is a stored program.
type DocumentRecord struct {
	ID        uuid.UUID           `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Program   *definition.Program `json:"program" yaml:"program"` // JSONB
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" yaml:"updated_at"`
}

// DocumentSummary is a DocumentRecord without its program.
type DocumentSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
