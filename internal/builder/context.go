package builder

import (
	"math"
	"reflect"
	"sync"

	"stencil/internal/metadata"
)

// BuildContext is the state shared by every builder during one build. It lets
// a template reach other content by logical name or by metadata value.
//
// Registration is safe for concurrent use. Variables must not be modified
// once the build has started.
type BuildContext struct {
	OutputDirectory string
	Variables       map[string]any

	mu      sync.RWMutex
	names   []string
	content map[string]Entry
}

// NewBuildContext creates an empty context writing under outputDirectory.
func NewBuildContext(outputDirectory string, variables map[string]any) *BuildContext {
	if variables == nil {
		variables = map[string]any{}
	}
	return &BuildContext{
		OutputDirectory: outputDirectory,
		Variables:       variables,
		content:         make(map[string]Entry),
	}
}

// Register stores artefact under name. An existing entry with the same name
// is replaced and keeps its original position. It reports whether an entry
// was replaced.
func (c *BuildContext) Register(name string, artefact Artefact, meta metadata.Metadata) bool {
	if meta == nil {
		meta = metadata.Metadata{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, replaced := c.content[name]
	if !replaced {
		c.names = append(c.names, name)
	}
	c.content[name] = Entry{Metadata: meta, Artefact: artefact}
	return replaced
}

// LookupByName returns the artefact registered under name.
func (c *BuildContext) LookupByName(name string) (Artefact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.content[name]
	return entry.Artefact, ok
}

// LookupByMetadata returns, in registration order, every entry whose metadata
// holds value under key.
func (c *BuildContext) LookupByMetadata(key string, value any) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var matches []Entry
	for _, name := range c.names {
		entry := c.content[name]
		got, ok := entry.Metadata[key]
		if ok && valuesEqual(got, value) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Len returns the number of registered names.
func (c *BuildContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// ByName is LookupByName for templates: it yields nil when name is unknown.
func (c *BuildContext) ByName(name string) *Artefact {
	artefact, ok := c.LookupByName(name)
	if !ok {
		return nil
	}
	return &artefact
}

// ByMetadata is LookupByMetadata for templates.
func (c *BuildContext) ByMetadata(key string, value any) []Entry {
	return c.LookupByMetadata(key, value)
}

// valuesEqual compares decoded JSON values. Numbers compare by value whatever
// their Go type, since a template literal 1 must match a JSON 1.
func valuesEqual(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	default:
		return 0, false
	}
}
