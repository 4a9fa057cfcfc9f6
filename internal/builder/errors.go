package builder

import "fmt"

// NoTemplateError is returned when a templated artefact does not name its
// template in the "template" metadata key.
type NoTemplateError struct {
	Source string
}

func (e *NoTemplateError) Error() string {
	return fmt.Sprintf("no template provided for %s", e.Source)
}

// UnknownBuilderFlavorError is returned for a flavor with no strategy.
type UnknownBuilderFlavorError struct {
	Builder string
	Flavor  string
}

func (e *UnknownBuilderFlavorError) Error() string {
	return fmt.Sprintf("no builder for flavor %q (builder %q)", e.Flavor, e.Builder)
}

// UnknownBuilderError is returned when content is routed to a builder that
// was never declared.
type UnknownBuilderError struct {
	Name string
}

func (e *UnknownBuilderError) Error() string {
	return fmt.Sprintf("content routed to undeclared builder %q", e.Name)
}

// BuilderConfigError is returned when a builder's construction parameters
// are invalid for its flavor.
type BuilderConfigError struct {
	Builder string
	Flavor  Flavor
	Err     error
}

func (e *BuilderConfigError) Error() string {
	return fmt.Sprintf("invalid config for builder %q (%s): %v", e.Builder, e.Flavor, e.Err)
}

func (e *BuilderConfigError) Unwrap() error {
	return e.Err
}

// TemplateNotFoundError is returned when a named template is not present in
// the template directory.
type TemplateNotFoundError struct {
	Name      string
	Directory string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in %s", e.Name, e.Directory)
}

// RecursionLimitExceededError is returned when recursive expansion has not
// reached a fixed point within the allowed number of passes.
type RecursionLimitExceededError struct {
	Passes int
}

func (e *RecursionLimitExceededError) Error() string {
	return fmt.Sprintf("template expansion did not settle after %d passes", e.Passes)
}

// UnknownMarkdownExtensionError is returned for an unsupported entry in
// markdown_extensions.
type UnknownMarkdownExtensionError struct {
	Name string
}

func (e *UnknownMarkdownExtensionError) Error() string {
	return fmt.Sprintf("unknown markdown extension %q", e.Name)
}
