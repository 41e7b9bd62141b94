package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/sahilm/fuzzy"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

const (
	FormatAuto    = "auto"
	FormatFoundry = "foundry"
	FormatHardhat = "hardhat"
)

// ArtifactLoaderAdapter reads compiled contracts from a Foundry out/ or a
// Hardhat artifacts/ directory. Nothing is compiled here.
type ArtifactLoaderAdapter struct {
	projectRoot string
	dir         string
	format      string
	log         *slog.Logger

	mu    sync.Mutex
	index map[string][]string // contract name -> artifact files
}

// NewArtifactLoaderAdapter creates a loader for the configured artifact directory
func NewArtifactLoaderAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *ArtifactLoaderAdapter {
	format := cfg.Artifacts.Format
	if format == "" {
		format = FormatAuto
	}
	return &ArtifactLoaderAdapter{
		projectRoot: cfg.ProjectRoot,
		dir:         cfg.Artifacts.Dir,
		format:      format,
		log:         log.With("component", "ArtifactLoader"),
	}
}

// artifactFile covers the fields of both artifact formats
type artifactFile struct {
	Format       string                `json:"_format"`
	ContractName string                `json:"contractName"`
	SourceName   string                `json:"sourceName"`
	ABI          json.RawMessage       `json:"abi"`
	Bytecode     models.BytecodeObject `json:"bytecode"`
	RawMetadata  string                `json:"rawMetadata"`
	Metadata     json.RawMessage       `json:"metadata"`
}

// Load finds the artifact for contractName and decodes its ABI and creation code
func (l *ArtifactLoaderAdapter) Load(ctx context.Context, contractName string) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index, err := l.buildIndex()
	if err != nil {
		return nil, err
	}

	paths := index[contractName]
	switch {
	case len(paths) == 0:
		return nil, domain.ArtifactNotFoundErr{
			Name:        contractName,
			Dir:         l.dir,
			Suggestions: suggest(contractName, index),
		}
	case len(paths) > 1:
		return nil, fmt.Errorf("contract name %s is ambiguous, found %d artifacts: %s",
			contractName, len(paths), strings.Join(paths, ", "))
	}

	path := paths[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI in %s: %w", path, err)
	}

	code, err := file.Bytecode.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", contractName, err)
	}

	artifact := &models.Artifact{
		Name:     contractName,
		Path:     path,
		ABI:      parsedABI,
		Bytecode: code,
		Format:   l.detectFormat(&file),
	}

	switch artifact.Format {
	case FormatHardhat:
		artifact.SourceName = file.SourceName
		artifact.BuildInfoRef, err = hardhatBuildInfo(path)
		if err != nil {
			return nil, err
		}
	default:
		artifact.RawMetadata = file.metadata()
		artifact.SourceName, err = compilationTarget(artifact.RawMetadata, contractName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	l.log.Debug("loaded artifact",
		"contract", contractName,
		"format", artifact.Format,
		"source", artifact.SourceName,
		"bytecode_size", len(code))

	return artifact, nil
}

// Sources assembles the standard-json input an explorer needs to rebuild the artifact
func (l *ArtifactLoaderAdapter) Sources(ctx context.Context, artifact *models.Artifact) (*models.SourceBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		bundle *models.SourceBundle
		err    error
	)
	if artifact.Format == FormatHardhat {
		bundle, err = hardhatSources(artifact.BuildInfoRef)
	} else {
		bundle, err = l.foundrySources(artifact.RawMetadata)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to assemble sources for %s: %w", artifact.Name, err)
	}
	bundle.ContractName = artifact.FullyQualifiedName()
	return bundle, nil
}

func (l *ArtifactLoaderAdapter) detectFormat(file *artifactFile) string {
	if l.format != FormatAuto {
		return l.format
	}
	if strings.HasPrefix(file.Format, "hh-sol-artifact") {
		return FormatHardhat
	}
	return FormatFoundry
}

// metadata returns the solc metadata document, which Foundry writes either
// as a string or as an embedded object
func (f *artifactFile) metadata() string {
	if f.RawMetadata != "" {
		return f.RawMetadata
	}
	trimmed := bytes.TrimSpace(f.Metadata)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return string(trimmed)
	}
	return ""
}

// buildIndex walks the artifact directory once and caches name -> files
func (l *ArtifactLoaderAdapter) buildIndex() (map[string][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index != nil {
		return l.index, nil
	}

	if _, err := os.Stat(l.dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact directory %s does not exist (build the contracts first): %w",
				l.dir, domain.ErrArtifactNotFound)
		}
		return nil, err
	}

	index := make(map[string][]string)
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" || d.Name() == "cache" {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) != ".json" || strings.HasSuffix(name, ".dbg.json") {
			return nil
		}
		contract := strings.TrimSuffix(name, ".json")
		index[contract] = append(index[contract], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", l.dir, err)
	}

	l.log.Debug("indexed artifacts", "dir", l.dir, "contracts", len(index))
	l.index = index
	return index, nil
}

// suggest returns up to three indexed names close to name
func suggest(name string, index map[string][]string) []string {
	names := make([]string, 0, len(index))
	for n := range index {
		names = append(names, n)
	}
	sort.Strings(names)

	var suggestions []string
	for _, match := range fuzzy.Find(name, names) {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == 3 {
			return suggestions
		}
	}
	if len(suggestions) > 0 {
		return suggestions
	}

	lower := strings.ToLower(name)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lower) || strings.Contains(lower, strings.ToLower(n)) {
			suggestions = append(suggestions, n)
			if len(suggestions) == 3 {
				break
			}
		}
	}
	return suggestions
}

var _ usecase.ArtifactLoader = (*ArtifactLoaderAdapter)(nil)
