package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aevon-lab/envelope/internal/validation/rules"
)

// FileSystemRepository implements Repository using a flat directory of
// <name>.yaml, <name>.yml and <name>.proto files.
// YAML files take precedence over protobuf files if both exist.
type FileSystemRepository struct {
	rootDir string
}

// NewFileSystemRepository creates a new file system backed repository.
func NewFileSystemRepository(rootDir string) *FileSystemRepository {
	return &FileSystemRepository{
		rootDir: rootDir,
	}
}

// Get retrieves a definition from the file system.
// Warns if both formats exist for the same name.
func (r *FileSystemRepository) Get(ctx context.Context, name string) (*rules.Definition, error) {
	var yamlPath string
	for _, ext := range []string{".yaml", ".yml"} {
		if p := filepath.Join(r.rootDir, name+ext); fileExists(p) {
			yamlPath = p
			break
		}
	}
	protoPath := filepath.Join(r.rootDir, name+".proto")
	protoExists := fileExists(protoPath)

	if yamlPath != "" && protoExists {
		slog.Warn("Both .yaml and .proto exist for rules - using .yaml (precedence rule)",
			"name", name, "dir", r.rootDir)
	}

	if yamlPath != "" {
		content, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML rules: %w", err)
		}
		return buildDefinition(name, content, rules.FormatYaml), nil
	}

	if protoExists {
		content, err := os.ReadFile(protoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read protobuf rules: %w", err)
		}
		return buildDefinition(name, content, rules.FormatProtobuf), nil
	}

	return nil, ErrNotFound
}

// List scans the directory for rule files. A missing directory holds no
// rules.
func (r *FileSystemRepository) List(ctx context.Context) ([]*rules.Definition, error) {
	entries, err := os.ReadDir(r.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*rules.Definition{}, nil
		}
		return nil, err
	}

	names := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch ext {
		case ".yaml", ".yml", ".proto":
			names[strings.TrimSuffix(entry.Name(), ext)] = true
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	result := make([]*rules.Definition, 0, len(sorted))
	for _, name := range sorted {
		def, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		result = append(result, def)
	}
	return result, nil
}

func buildDefinition(name string, content []byte, format rules.Format) *rules.Definition {
	return &rules.Definition{
		Name:        name,
		Format:      format,
		Source:      content,
		Fingerprint: rules.ComputeFingerprint(content),
	}
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
