package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (p *PostgresClient) SaveDocument(ctx context.Context, rec *DocumentRecord) error {
	def, err := json.Marshal(rec.Program)
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}

	if rec.ID == uuid.Nil {
		err = p.pool.QueryRow(ctx, `
			INSERT INTO program_documents (name, definition)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at
		`, rec.Name, def).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		return nil
	}

	err = p.pool.QueryRow(ctx, `
		UPDATE program_documents
		SET name = $2, definition = $3, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, rec.ID, rec.Name, def).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (p *PostgresClient) LoadDocument(ctx context.Context, id uuid.UUID) (*DocumentRecord, error) {
	var (
		rec DocumentRecord
		def []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, definition, created_at, updated_at
		FROM program_documents
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Name, &def, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	rec.Program = &definition.Program{}
	if err := json.Unmarshal(def, rec.Program); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program: %w", err)
	}
	return &rec, nil
}

func (p *PostgresClient) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM program_documents
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	out := make([]DocumentSummary, 0)
	for rows.Next() {
		var s DocumentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresClient) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM program_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
