package forge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// solcMetadata is the subset of the solc metadata document needed to
// rebuild a standard-json input
type solcMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Language string                     `json:"language"`
	Settings map[string]json.RawMessage `json:"settings"`
	Sources  map[string]struct {
		Content string `json:"content"`
	} `json:"sources"`
}

func parseMetadata(raw string) (*solcMetadata, error) {
	if raw == "" {
		return nil, fmt.Errorf("artifact has no compiler metadata (enable extra_output metadata)")
	}
	var meta solcMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("invalid compiler metadata: %w", err)
	}
	return &meta, nil
}

// compilationTarget returns the source file that defines contractName
func compilationTarget(raw, contractName string) (string, error) {
	meta, err := parseMetadata(raw)
	if err != nil {
		return "", err
	}
	var targets map[string]string
	if data, ok := meta.Settings["compilationTarget"]; ok {
		if err := json.Unmarshal(data, &targets); err != nil {
			return "", fmt.Errorf("invalid compilationTarget: %w", err)
		}
	}
	for source, name := range targets {
		if name == contractName {
			return source, nil
		}
	}
	return "", fmt.Errorf("metadata has no compilation target for %s", contractName)
}

// foundrySources rebuilds the standard-json input from the metadata
// settings. Source contents missing from the metadata are read from disk.
func (l *ArtifactLoaderAdapter) foundrySources(raw string) (*models.SourceBundle, error) {
	meta, err := parseMetadata(raw)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]map[string]string, len(meta.Sources))
	for path, src := range meta.Sources {
		content := src.Content
		if content == "" {
			data, err := os.ReadFile(filepath.Join(l.projectRoot, path))
			if err != nil {
				return nil, fmt.Errorf("source %s is not embedded in metadata and could not be read: %w", path, err)
			}
			content = string(data)
		}
		sources[path] = map[string]string{"content": content}
	}

	settings := make(map[string]any, len(meta.Settings))
	for key, value := range meta.Settings {
		switch key {
		case "compilationTarget":
		case "libraries":
			libs, err := standardLibraries(value)
			if err != nil {
				return nil, err
			}
			if len(libs) > 0 {
				settings[key] = libs
			}
		default:
			settings[key] = value
		}
	}

	language := meta.Language
	if language == "" {
		language = "Solidity"
	}
	input, err := json.Marshal(map[string]any{
		"language": language,
		"sources":  sources,
		"settings": settings,
	})
	if err != nil {
		return nil, err
	}

	return &models.SourceBundle{
		CompilerVersion: compilerVersion(meta.Compiler.Version),
		StandardJSON:    input,
	}, nil
}

// standardLibraries converts metadata libraries ("file:Lib" -> address)
// into the nested standard-json form (file -> Lib -> address)
func standardLibraries(raw json.RawMessage) (map[string]map[string]string, error) {
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("invalid libraries setting: %w", err)
	}
	nested := make(map[string]map[string]string)
	for key, address := range flat {
		i := strings.LastIndex(key, ":")
		if i < 0 {
			return nil, fmt.Errorf("invalid library reference %q", key)
		}
		file, name := key[:i], key[i+1:]
		if nested[file] == nil {
			nested[file] = make(map[string]string)
		}
		nested[file][name] = address
	}
	return nested, nil
}

// compilerVersion normalizes to the v-prefixed long form explorers expect
func compilerVersion(version string) string {
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
