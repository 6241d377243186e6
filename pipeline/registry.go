// Package pipeline owns the process-wide builder registry and the
// Pipeline lifecycle: creating modules from a config.PipelineConfig,
// wiring gates, starting/quiescing workers, and tearing everything down.
// Modeled on the teacher's container lifecycle (create/start/state/
// delete), applied to a dataflow graph instead of a single container.
package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"bessgo/errors"
	"bessgo/module"
)

// Builder is the static descriptor a module class registers: how to
// construct an uninitialized instance, its default naming template, and
// its command table. This replaces a C++ vtable-style builder with a
// plain descriptor struct, per spec.md §9.
type Builder struct {
	Class    string
	Template string
	New      func(name string) module.Module
	Commands module.CommandTable
}

// Registry is the process-wide class-name -> builder catalog.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
	nextID   map[string]int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
		nextID:   make(map[string]int),
	}
}

// Register adds b to the catalog. Re-registering an already-registered
// class is an error; callers that want to replace a builder must Clear
// first.
func (r *Registry) Register(b Builder) error {
	if b.Class == "" {
		return errors.New(errors.ErrInvalidArg, "pipeline.Register", "builder class name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[b.Class]; exists {
		return errors.WrapWithModule(errors.ErrModuleExists, errors.ErrAlreadyExists, "pipeline.Register", b.Class)
	}
	r.builders[b.Class] = b
	return nil
}

// Lookup returns the builder registered for class, if any.
func (r *Registry) Lookup(class string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[class]
	return b, ok
}

// Classes returns every registered class name, sorted, for introspection
// commands like bessgo list.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]string, 0, len(r.builders))
	for class := range r.builders {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Clear empties the registry and resets auto-naming counters.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders = make(map[string]Builder)
	r.nextID = make(map[string]int)
}

// Create instantiates a module of the given class under name, or an
// auto-generated name if name is empty: {snake_case(template)}{n}, where
// n is the lowest non-colliding integer for that template, per spec.md
// §4's builder registry description. existingNames is consulted (not
// tracked by Registry itself, since uniqueness is process-wide across the
// owning Pipeline, not per-registry) so the generated name never collides
// with an already-created module.
func (r *Registry) Create(class, name string, existingNames map[string]bool) (module.Module, error) {
	r.mu.Lock()
	b, ok := r.builders[class]
	if !ok {
		r.mu.Unlock()
		return nil, errors.WrapWithModule(errors.ErrBuilderNotFound, errors.ErrNotFound, "pipeline.Create", class)
	}
	if name == "" {
		template := b.Template
		if template == "" {
			template = b.Class
		}
		base := snakeCase(template)
		for {
			n := r.nextID[base]
			r.nextID[base] = n + 1
			candidate := base + strconv.Itoa(n)
			if !existingNames[candidate] {
				name = candidate
				break
			}
		}
	}
	r.mu.Unlock()

	if existingNames[name] {
		return nil, errors.WrapWithModule(errors.ErrModuleExists, errors.ErrAlreadyExists, "pipeline.Create", name)
	}
	if name == "" {
		return nil, errors.New(errors.ErrInvalidArg, "pipeline.Create", "module name cannot be empty")
	}
	return b.New(name), nil
}

// snakeCase converts a CamelCase or PascalCase class/template name
// ("L2Forward", "IPLookup") into snake_case ("l2_forward", "ip_lookup"),
// treating a run of capitals followed by a lowercase letter as a single
// word boundary (so "IPLookup" splits as "ip"/"lookup", not "i"/"p"/...).
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			startsWord := i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if startsWord {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}
