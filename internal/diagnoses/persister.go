package diagnoses

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/repository"
)

// Persister stores completed workflow states as diagnoses.
type Persister struct {
	db *sql.DB
}

// NewPersister creates the workflow's persistence collaborator.
func NewPersister(db *sql.DB) *Persister {
	return &Persister{db: db}
}

// Persist inserts one diagnosis row. It requires the judgment fields and
// is not retried.
func (p *Persister) Persist(ctx context.Context, s workflow.State) (uuid.UUID, error) {
	score, ok := s.Score.Get()
	if !ok {
		return uuid.Nil, fmt.Errorf("persist %s: judgment missing", s.ImageID)
	}

	id := uuid.New()
	q := `
		INSERT INTO diagnoses(id, owner, image_id, user_text, description, score, disease, advice)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	err := repository.InTx(ctx, p.db, func(tx *sql.Tx) error {
		return repository.ExecExpectOne(
			ctx, tx, q,
			id,
			s.Owner,
			s.ImageID,
			s.UserText,
			s.Description.Value(),
			score,
			s.Disease.Value(),
			s.Advice.Value(),
		)
	})
	if err != nil {
		return uuid.Nil, repository.MapError(err, tableErrors)
	}

	return id, nil
}
