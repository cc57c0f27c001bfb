package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore keeps documents in a single JSONB table keyed by
// (collection, doc_id). It has no native watch support; pair it with the
// Kafka change feed for subscriptions.
type PostgresStore struct {
	db    *sql.DB
	nowFn func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, nowFn: time.Now}
}

// ConnectPostgres establishes a pooled connection.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate creates the documents table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			doc_id     TEXT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, doc_id)
		)`)
	if err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	var updatedAt time.Time
	err := p.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM documents WHERE collection = $1 AND doc_id = $2`,
		collection, id,
	).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeRow(id, raw, updatedAt)
}

func (p *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT doc_id, data, updated_at FROM documents WHERE collection = $1 ORDER BY doc_id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		var updatedAt time.Time
		if err := rows.Scan(&id, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		doc, err := decodeRow(id, raw, updatedAt)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return docs, nil
}

func (p *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.New().String()
	if err := p.Set(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	now := p.nowFn()
	body, err := normalize(data, now)
	if err != nil {
		return err
	}

	if merge {
		existing, err := p.Get(ctx, collection, id)
		if err == nil {
			merged := copyData(existing.Data)
			for k, v := range body {
				merged[k] = v
			}
			body = merged
		} else if err != ErrNotFound {
			return err
		}
	}

	return p.write(ctx, p.db, collection, id, body, now)
}

func (p *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := p.Get(ctx, collection, id); err != nil {
		return err
	}
	return p.Set(ctx, collection, id, fields, true)
}

func (p *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND doc_id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) Batch() Batch {
	return &postgresBatch{store: p}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// write upserts one document body.
func (p *PostgresStore) write(ctx context.Context, ex execer, collection, id string, body map[string]any, now time.Time) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_id, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, doc_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		collection, id, raw, now,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type postgresBatch struct {
	store *PostgresStore
	ops   []batchOp
}

func (b *postgresBatch) Set(collection, id string, data map[string]any) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, data: data})
}

func (b *postgresBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id})
}

// Commit runs every staged write in one SQL transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	now := b.store.nowFn()

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	for _, op := range b.ops {
		if op.data == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = $1 AND doc_id = $2`,
				op.collection, op.id,
			); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			continue
		}
		body, err := normalize(op.data, now)
		if err != nil {
			return err
		}
		if err := b.store.write(ctx, tx, op.collection, op.id, body, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func decodeRow(id string, raw []byte, updatedAt time.Time) (Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return Document{ID: id, Data: data, UpdatedAt: updatedAt}, nil
}
