package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

// ErrNoDigest indicates that no digest has been stored yet.
var ErrNoDigest = errors.New("no digest stored")

// StoredDigest is a digest row together with its generation metadata.
type StoredDigest struct {
	domain.Digest
	Model string `json:"model"`
}

// SaveDigest persists an assembled, resolved digest. Digests are never
// updated in place; each refresh inserts a new row.
func (db *DB) SaveDigest(ctx context.Context, digest domain.Digest, model string) error {
	citations, err := json.Marshal(digest.Citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	evidence, err := json.Marshal(digest.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	var explicit *string
	if digest.ExplicitSentiment != nil {
		s := string(*digest.ExplicitSentiment)
		explicit = &s
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO digests (id, content, citations, sentiment, explicit_sentiment,
			positive_score, negative_score, evidence, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		digest.ID, digest.Content, citations, string(digest.Sentiment), explicit,
		digest.Evidence.PositiveScore, digest.Evidence.NegativeScore, evidence, model, digest.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}

	return nil
}

// GetLatestDigest returns the most recently created digest.
func (db *DB) GetLatestDigest(ctx context.Context) (*StoredDigest, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, content, citations, sentiment, explicit_sentiment, evidence, model, created_at
		FROM digests
		ORDER BY created_at DESC
		LIMIT 1`)

	digest, err := scanDigest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDigest
		}

		return nil, fmt.Errorf("get latest digest: %w", err)
	}

	return digest, nil
}

// ListDigests returns up to limit digests, newest first.
func (db *DB) ListDigests(ctx context.Context, limit int) ([]StoredDigest, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, content, citations, sentiment, explicit_sentiment, evidence, model, created_at
		FROM digests
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}

	defer rows.Close()

	var digests []StoredDigest

	for rows.Next() {
		digest, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}

		digests = append(digests, *digest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digests: %w", err)
	}

	return digests, nil
}

func scanDigest(row pgx.Row) (*StoredDigest, error) {
	var (
		stored        StoredDigest
		citationsJSON []byte
		evidenceJSON  []byte
		sentiment     string
		explicit      *string
		createdAt     time.Time
	)

	if err := row.Scan(&stored.ID, &stored.Content, &citationsJSON, &sentiment,
		&explicit, &evidenceJSON, &stored.Model, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(citationsJSON, &stored.Citations); err != nil {
		return nil, fmt.Errorf("unmarshal citations: %w", err)
	}

	if err := json.Unmarshal(evidenceJSON, &stored.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}

	stored.Sentiment = domain.Verdict(sentiment)

	if explicit != nil {
		v := domain.Verdict(*explicit)
		stored.ExplicitSentiment = &v
	}

	stored.CreatedAt = createdAt

	return &stored, nil
}
