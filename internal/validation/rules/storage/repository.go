package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aevon-lab/envelope/internal/validation"
	"github.com/aevon-lab/envelope/internal/validation/rules"
)

// ErrNotFound is returned when no rule definition has the requested name.
var ErrNotFound = errors.New("rule definition not found")

// Repository defines the interface for rule definition storage.
type Repository interface {
	// Get retrieves a definition by name. Returns ErrNotFound if not found.
	Get(ctx context.Context, name string) (*rules.Definition, error)

	// List returns every definition, ordered by name.
	List(ctx context.Context) ([]*rules.Definition, error)
}

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	defs map[string]*rules.Definition
}

// NewMemoryRepository creates a new in-memory rule repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		defs: make(map[string]*rules.Definition),
	}
}

// Put stores a copy of def, replacing any definition with the same name.
func (r *MemoryRepository) Put(def *rules.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copy := *def
	if copy.Fingerprint == "" {
		copy.Fingerprint = rules.ComputeFingerprint(copy.Source)
	}
	r.defs[def.Name] = &copy
}

func (r *MemoryRepository) Get(ctx context.Context, name string) (*rules.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.defs[name]
	if !exists {
		return nil, ErrNotFound
	}
	copy := *def
	return &copy, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*rules.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*rules.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		copy := *def
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Load compiles every definition in repo and registers the resulting rule
// sets in reg under their own names. It stops at the first definition that
// fails to compile or whose name is already taken by another rule file.
func Load(ctx context.Context, repo Repository, compilers *rules.CompilerRegistry, reg *validation.Registry) ([]*rules.RuleSet, error) {
	defs, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rule definitions: %w", err)
	}

	seen := make(map[string]string, len(defs))
	sets := make([]*rules.RuleSet, 0, len(defs))
	for _, def := range defs {
		set, err := compilers.Compile(ctx, def)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[set.Name]; dup {
			return nil, fmt.Errorf("validator %q is defined by both %q and %q", set.Name, other, def.Name)
		}
		seen[set.Name] = def.Name

		reg.RegisterValidator(set.Name, set)
		sets = append(sets, set)

		slog.Debug("Registered rule validator",
			"validator", set.Name,
			"format", set.Format,
			"extensions", len(set.Extensions),
			"fingerprint", set.Fingerprint)
	}
	return sets, nil
}
