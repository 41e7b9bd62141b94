package forge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// hardhatBuildInfo follows the .dbg.json next to an artifact to its build-info file
func hardhatBuildInfo(artifactPath string) (string, error) {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", dbgPath, err)
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return "", nil
	}
	return filepath.Join(filepath.Dir(artifactPath), dbg.BuildInfo), nil
}

// hardhatSources takes the solc input verbatim from the build-info file
func hardhatSources(buildInfoPath string) (*models.SourceBundle, error) {
	if buildInfoPath == "" {
		return nil, fmt.Errorf("artifact has no build-info reference")
	}
	data, err := os.ReadFile(buildInfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build-info: %w", err)
	}

	var info struct {
		SolcLongVersion string          `json:"solcLongVersion"`
		Input           json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse build-info %s: %w", buildInfoPath, err)
	}
	if len(info.Input) == 0 {
		return nil, fmt.Errorf("build-info %s has no compiler input", buildInfoPath)
	}

	return &models.SourceBundle{
		CompilerVersion: compilerVersion(info.SolcLongVersion),
		StandardJSON:    info.Input,
	}, nil
}
