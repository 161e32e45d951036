package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"loanwise/internal/domain"
)

// CalculationRecord is one saved calculation: the validated terms plus
// the summary, kept so users can revisit recent runs. Full schedules
// are not persisted, they are cheap to regenerate.
type CalculationRecord struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"user_id"`
	Terms     domain.LoanTerms `json:"terms"`
	Summary   domain.Summary   `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}

type CalculationRepository struct {
	db *sql.DB
}

func NewCalculationRepository(db *sql.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

func (r *CalculationRepository) Save(ctx context.Context, rec CalculationRecord) error {
	terms, err := json.Marshal(rec.Terms)
	if err != nil {
		return err
	}
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO calculations (id, user_id, terms, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, query, rec.ID, rec.UserID, terms, summary, rec.CreatedAt)
	return err
}

// ListRecent returns the user's latest saved calculations, newest first.
func (r *CalculationRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]CalculationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, terms, summary, created_at
		FROM calculations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationRecord
	for rows.Next() {
		var (
			rec     CalculationRecord
			terms   []byte
			summary []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &terms, &summary, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(terms, &rec.Terms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &rec.Summary); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
