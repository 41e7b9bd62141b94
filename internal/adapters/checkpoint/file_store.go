package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// FileStore keeps one JSON document per chain under a directory
type FileStore struct {
	dir string
	log *slog.Logger
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string, log *slog.Logger) *FileStore {
	return &FileStore{
		dir: dir,
		log: log.With("component", "CheckpointFileStore"),
	}
}

func (s *FileStore) path(chainID uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(chainID, 10)+".json")
}

// Load reads the checkpoint for chainID. Returns domain.ErrNotFound if there is none.
func (s *FileStore) Load(_ context.Context, chainID uint64) (*models.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(chainID))
}

func (s *FileStore) read(path string) (*models.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	cp, err := models.UnmarshalCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cp, nil
}

// Save writes the checkpoint through a temp file so a crash never leaves a torn document
func (s *FileStore) Save(_ context.Context, cp *models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := cp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	target := s.path(cp.ChainID)
	tmp, err := os.CreateTemp(s.dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.log.Debug("checkpoint saved", "path", target, "stage", cp.LastStage)
	return nil
}

// Delete removes the checkpoint for chainID. Returns domain.ErrNotFound if there is none.
func (s *FileStore) Delete(_ context.Context, chainID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(chainID))
	if os.IsNotExist(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns all checkpoints ordered by chain ID
func (s *FileStore) List(_ context.Context) ([]*models.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var checkpoints []*models.Checkpoint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64); err != nil {
			continue
		}
		cp, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].ChainID < checkpoints[j].ChainID
	})
	return checkpoints, nil
}

var _ usecase.CheckpointStore = (*FileStore)(nil)
