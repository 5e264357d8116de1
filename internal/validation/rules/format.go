package rules

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Compiler turns a rule definition into a RuleSet. Each rule format
// implements this interface.
type Compiler interface {
	Compile(ctx context.Context, def *Definition) (*RuleSet, error)
}

// CompilerRegistry manages the compiler of each rule format and keeps the
// compiled rule sets, so reloading an unchanged file does not recompile it.
type CompilerRegistry struct {
	mu        sync.RWMutex
	compilers map[Format]Compiler

	cacheMu      sync.RWMutex
	compiled     map[string]*RuleSet
	compileGroup singleflight.Group // Dedupe concurrent compilation
}

// NewCompilerRegistry creates an empty registry.
func NewCompilerRegistry() *CompilerRegistry {
	return &CompilerRegistry{
		compilers: make(map[Format]Compiler),
		compiled:  make(map[string]*RuleSet),
	}
}

// RegisterFormat registers the compiler for a rule format.
func (r *CompilerRegistry) RegisterFormat(format Format, compiler Compiler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.compilers[format] = compiler
}

// GetCompiler retrieves the compiler for a given format.
func (r *CompilerRegistry) GetCompiler(format Format) (Compiler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	compiler, exists := r.compilers[format]
	if !exists {
		return nil, fmt.Errorf("unsupported rule format: %s", format)
	}
	return compiler, nil
}

// IsFormatSupported checks if a format has been registered.
func (r *CompilerRegistry) IsFormatSupported(format Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.compilers[format]
	return exists
}

// Compile dispatches def to the compiler of its format. Results are cached
// by name and content fingerprint; failures are not cached.
func (r *CompilerRegistry) Compile(ctx context.Context, def *Definition) (*RuleSet, error) {
	compiler, err := r.GetCompiler(def.Format)
	if err != nil {
		return nil, err
	}

	fingerprint := def.Fingerprint
	if fingerprint == "" {
		fingerprint = ComputeFingerprint(def.Source)
	}
	key := fmt.Sprintf("%s:%s:%s", def.Format, def.Name, fingerprint)

	r.cacheMu.RLock()
	if set, exists := r.compiled[key]; exists {
		r.cacheMu.RUnlock()
		return set, nil
	}
	r.cacheMu.RUnlock()

	result, err, _ := r.compileGroup.Do(key, func() (interface{}, error) {
		// Double-check cache after acquiring singleflight lock
		r.cacheMu.RLock()
		if set, exists := r.compiled[key]; exists {
			r.cacheMu.RUnlock()
			return set, nil
		}
		r.cacheMu.RUnlock()

		set, err := compiler.Compile(ctx, def)
		if err != nil {
			return nil, fmt.Errorf("compile %s rules %q: %w", def.Format, def.Name, err)
		}

		r.cacheMu.Lock()
		r.compiled[key] = set
		r.cacheMu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*RuleSet), nil
}

// CachedCount returns the number of compiled rule sets held.
func (r *CompilerRegistry) CachedCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	return len(r.compiled)
}
