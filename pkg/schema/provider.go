package schema

import (
	"context"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-router"
)

// DefinitionProvider renders a set of field definitions as resource metadata
// so the registry can merge dynamic columns into the aggregated document.
type DefinitionProvider struct {
	resource string
	plural   string
	defs     []types.FieldDefinition
}

// NewDefinitionProvider builds a provider for the named resource. The plural
// form drives the generated list route path.
func NewDefinitionProvider(resource, plural string, defs []types.FieldDefinition) DefinitionProvider {
	return DefinitionProvider{
		resource: resource,
		plural:   plural,
		defs:     append([]types.FieldDefinition(nil), defs...),
	}
}

// GetMetadata implements router.MetadataProvider.
func (p DefinitionProvider) GetMetadata() router.ResourceMetadata {
	properties := map[string]router.PropertyInfo{
		"id": {
			Type:         "string",
			OriginalName: "id",
		},
	}
	for _, def := range p.defs {
		if def.InternalName == "" {
			continue
		}
		properties[def.InternalName] = router.PropertyInfo{
			Type:         propertyType(def.FieldType),
			OriginalName: def.InternalName,
		}
	}
	return router.ResourceMetadata{
		Name:       p.resource,
		PluralName: p.plural,
		Schema: router.SchemaMetadata{
			Name:       p.resource,
			Properties: properties,
		},
		Routes: []router.RouteDefinition{
			{
				Method: router.GET,
				Path:   "/" + p.plural,
				Name:   p.resource + ":list",
			},
		},
	}
}

func propertyType(fieldType types.FieldType) string {
	switch fieldType {
	case types.FieldTypeNumber:
		return "number"
	case types.FieldTypeBoolean:
		return "boolean"
	case types.FieldTypeMultiChoice:
		return "array"
	default:
		return "string"
	}
}

// RefreshOnFieldChange returns a hook listener that re-registers the resource
// whenever a definition changes, so subscribers and publishers see the new
// column set. The lister runs against the scope carried by the event.
func RefreshOnFieldChange(reg *Registry, resource, plural string, list func(context.Context, types.ScopeFilter) []types.FieldDefinition) func(context.Context, types.FieldEvent) {
	return func(ctx context.Context, event types.FieldEvent) {
		if reg == nil || list == nil {
			return
		}
		defs := list(ctx, event.Scope)
		reg.Register(NewDefinitionProvider(resource, plural, defs))
	}
}
