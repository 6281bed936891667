// Package templates provides the catalog of parametrized automation node templates.
package templates

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/dukex/flowgen/pkg/models"
)

// Context carries the values a template may embed in its parameters.
type Context struct {
	StepLabel string
	Options   models.GenerationOptions
	Timestamp time.Time
}

// Template is a freshly built node shape. Callers own the returned Parameters.
type Template struct {
	Type        string
	TypeVersion float64
	Parameters  map[string]any
}

// Factory builds node templates for one role.
type Factory interface {
	// ID returns the role this factory builds nodes for
	ID() models.NodeRole

	// Name returns the human-readable name of the template
	Name() string

	// Description returns what nodes built from this template do
	Description() string

	// Build returns a new template value; every call allocates fresh parameters
	Build(ctx Context) Template
}

// Catalog maps node roles to their template factories.
type Catalog struct {
	factories map[models.NodeRole]Factory
}

// NewCatalog returns a catalog holding the built-in templates.
func NewCatalog() *Catalog {
	catalog := &Catalog{factories: make(map[models.NodeRole]Factory)}

	for _, factory := range []Factory{
		&TriggerFactory{},
		&AIFactory{},
		&TransformFactory{},
		&NotifyFactory{},
		&ApprovalFactory{},
		&ResponseFactory{},
		&ErrorHandlerFactory{},
	} {
		catalog.Register(factory)
	}

	return catalog
}

// Register adds or replaces the factory for its role.
func (c *Catalog) Register(factory Factory) {
	c.factories[factory.ID()] = factory
}

// Build creates the template for role.
func (c *Catalog) Build(role models.NodeRole, ctx Context) (Template, error) {
	factory, ok := c.factories[role]
	if !ok {
		return Template{}, fmt.Errorf("template for role '%s' not registered", role)
	}

	return factory.Build(ctx), nil
}

// Factory returns the factory registered for role.
func (c *Catalog) Factory(role models.NodeRole) (Factory, bool) {
	factory, ok := c.factories[role]

	return factory, ok
}

// Roles returns the registered roles sorted by name.
func (c *Catalog) Roles() []models.NodeRole {
	return slices.Sorted(maps.Keys(c.factories))
}

// Clone deep-copies a parameter map so overrides never reach the source.
func Clone(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	out := make(map[string]any, len(params))
	for key, value := range params {
		out[key] = cloneValue(value)
	}

	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}

		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}

		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

// Override returns a copy of base with the given keys replaced.
func Override(base map[string]any, overrides map[string]any) map[string]any {
	out := Clone(base)
	if out == nil {
		out = make(map[string]any, len(overrides))
	}

	for key, value := range overrides {
		out[key] = cloneValue(value)
	}

	return out
}

// requiredRoles are the roles the generator emits.
var requiredRoles = []models.NodeRole{
	models.RoleTrigger,
	models.RoleAI,
	models.RoleTransform,
	models.RoleHuman,
	models.RoleApproval,
	models.RoleResponse,
	models.RoleError,
}

// HealthCheck reports whether every role the generator emits has a template.
func (c *Catalog) HealthCheck() (string, bool) {
	missing := make([]string, 0)

	for _, role := range requiredRoles {
		if _, ok := c.factories[role]; !ok {
			missing = append(missing, string(role))
		}
	}

	if len(missing) > 0 {
		return fmt.Sprintf("Template catalog is missing roles: %v", missing), false
	}

	return "Template catalog is healthy", true
}
