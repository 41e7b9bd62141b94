package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// SQLiteStore keeps checkpoints in a single SQLite database, one row per chain
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path and migrates it
func NewSQLiteStore(ctx context.Context, path string, log *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}
	// one writer; the pipeline saves sequentially anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.With("component", "CheckpointSQLiteStore")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		chain_id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		network TEXT NOT NULL,
		last_stage TEXT,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_network ON checkpoints(network);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating checkpoint database: %w", err)
	}
	return nil
}

// Load returns domain.ErrNotFound when the chain has no checkpoint
func (s *SQLiteStore) Load(ctx context.Context, chainID uint64) (*models.Checkpoint, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM checkpoints WHERE chain_id = ?`, int64(chainID),
	).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	return models.UnmarshalCheckpoint([]byte(document))
}

// Save upserts the checkpoint row for its chain
func (s *SQLiteStore) Save(ctx context.Context, cp *models.Checkpoint) error {
	data, err := cp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	query := `
		INSERT INTO checkpoints (chain_id, run_id, network, last_stage, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chain_id) DO UPDATE SET
			run_id = excluded.run_id,
			network = excluded.network,
			last_stage = excluded.last_stage,
			document = excluded.document,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		int64(cp.ChainID), cp.RunID, cp.Network, string(cp.LastStage), string(data),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	s.log.Debug("checkpoint saved", "chain_id", cp.ChainID, "stage", cp.LastStage)
	return nil
}

// Delete removes the row for chainID. Returns domain.ErrNotFound if there is none.
func (s *SQLiteStore) Delete(ctx context.Context, chainID uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE chain_id = ?`, int64(chainID))
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all checkpoints ordered by chain ID
func (s *SQLiteStore) List(ctx context.Context) ([]*models.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM checkpoints ORDER BY chain_id`)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*models.Checkpoint
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		cp, err := models.UnmarshalCheckpoint([]byte(document))
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

var _ usecase.CheckpointStore = (*SQLiteStore)(nil)
