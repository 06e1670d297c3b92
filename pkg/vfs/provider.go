package vfs

import (
	"sort"

	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// AttrFlags describes how an attribute may be used.
type AttrFlags struct {
	Readable         bool
	Writable         bool
	SettableOnCreate bool
}

// AttrDescriptor is a provider's declaration of one attribute's domain type
// and usage flags.
type AttrDescriptor struct {
	Type  types.AttrKind
	Flags AttrFlags
}

// AttributeProvider owns one view name and the attributes it answers for,
// per spec.md §4.5. Each provider may also answer for the attributes of
// other views it declares in Inherits, walked transitively by
// AttributeService.
type AttributeProvider interface {
	Name() string
	Inherits() []string
	Attributes() map[string]AttrDescriptor
	Get(n *node) (view string, attrs map[string]types.AttrValue)
	GetOne(n *node, name string) (types.AttrValue, bool)
	Set(n *node, name string, value types.AttrValue, onCreate bool) error
	SetInitialAttributes(n *node)
}

// AttributeService is the registry of providers mediating get/set/read-all
// per spec.md §4.5's public surface.
type AttributeService struct {
	providers map[string]AttributeProvider
	order     []string
}

// NewAttributeService builds a registry from the given providers, keyed by
// their declared view name.
func NewAttributeService(providers ...AttributeProvider) *AttributeService {
	s := &AttributeService{providers: make(map[string]AttributeProvider)}
	for _, p := range providers {
		s.providers[p.Name()] = p
		s.order = append(s.order, p.Name())
	}
	return s
}

func (s *AttributeService) providerFor(view string) (AttributeProvider, bool) {
	p, ok := s.providers[view]
	return p, ok
}

// transitiveViews returns view plus everything it inherits, transitively,
// each listed once, view itself first.
func (s *AttributeService) transitiveViews(view string) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(v string)
	walk = func(v string) {
		if seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
		if p, ok := s.providerFor(v); ok {
			for _, dep := range p.Inherits() {
				walk(dep)
			}
		}
	}
	walk(view)
	return out
}

// dynamicProvider is implemented by providers whose attribute names are not
// fixed in advance (the user view's arbitrary extended attributes), so
// resolve cannot consult a static Attributes() map to decide ownership.
type dynamicProvider interface {
	HasDynamicNames() bool
}

// resolve finds the provider that owns name, consulting view's own
// attribute set first, then its inherits chain transitively. Per jimfs, a
// name that belongs only to a view that *depends on* view (the reverse
// direction) is not visible — inheritance is one-directional.
func (s *AttributeService) resolve(view, name string) (AttributeProvider, bool) {
	for _, v := range s.transitiveViews(view) {
		p, ok := s.providerFor(v)
		if !ok {
			continue
		}
		if _, has := p.Attributes()[name]; has {
			return p, true
		}
		if d, ok := p.(dynamicProvider); ok && d.HasDynamicNames() {
			return p, true
		}
	}
	return nil, false
}

// GetAttribute resolves "view:name" (or bare "name", defaulting to basic)
// against n.
func (s *AttributeService) GetAttribute(n *node, spec string) (types.AttrValue, error) {
	parsed, err := parseAttrSpec(spec)
	if err != nil {
		return nil, err
	}
	p, ok := s.resolve(parsed.view, parsed.names[0])
	if !ok {
		return nil, vfserr.New(vfserr.InvalidAttribute, "unknown attribute").WithAttribute(spec).WithComponent("attrs")
	}
	v, ok := p.GetOne(n, parsed.names[0])
	if !ok {
		return nil, vfserr.New(vfserr.InvalidAttribute, "attribute has no value").WithAttribute(spec).WithComponent("attrs")
	}
	return v, nil
}

// SetAttribute validates and stores value against the attribute named by
// spec. onCreate=true additionally refuses any attribute not marked
// settable-on-create, routing through the same Unsupported class as a
// normally-unwritable attribute.
func (s *AttributeService) SetAttribute(n *node, spec string, value types.AttrValue, onCreate bool) error {
	parsed, err := parseAttrSpec(spec)
	if err != nil {
		return err
	}
	name := parsed.names[0]
	p, ok := s.resolve(parsed.view, name)
	if !ok {
		return vfserr.New(vfserr.InvalidAttribute, "unknown attribute").WithAttribute(spec).WithComponent("attrs")
	}
	if value == nil {
		return vfserr.New(vfserr.InvalidArgument, "attribute value must not be nil").WithAttribute(spec).WithComponent("attrs")
	}

	desc, fixed := p.Attributes()[name]
	if !fixed {
		// Dynamic provider (the user view): any name is writable; the value
		// is passed on uncoerced and the provider checks its kind.
		return p.Set(n, name, value, onCreate)
	}

	if onCreate && !desc.Flags.SettableOnCreate {
		return vfserr.New(vfserr.Unsupported, "attribute not settable on create").WithAttribute(spec).WithComponent("attrs")
	}
	if !onCreate && !desc.Flags.Writable {
		return vfserr.New(vfserr.Unsupported, "attribute not writable").WithAttribute(spec).WithComponent("attrs")
	}

	coerced, err := coerceAttrValue(desc.Type, value)
	if err != nil {
		return vfserr.New(vfserr.InvalidArgument, err.Error()).WithAttribute(spec).WithComponent("attrs")
	}

	return p.Set(n, name, coerced, onCreate)
}

// ReadAttributes implements "view:a,b,c" and "view:*" reads. The wildcard
// unions the provider's own attributes with everything reachable through
// its inherits chain, transitively.
func (s *AttributeService) ReadAttributes(n *node, spec string) (map[string]types.AttrValue, error) {
	parsed, err := parseAttrListSpec(spec)
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.AttrValue)

	if parsed.wild {
		for _, v := range s.transitiveViews(parsed.view) {
			p, ok := s.providerFor(v)
			if !ok {
				continue
			}
			_, attrs := p.Get(n)
			for name, val := range attrs {
				if _, already := out[name]; !already {
					out[name] = val
				}
			}
		}
		return out, nil
	}

	for _, name := range parsed.names {
		p, ok := s.resolve(parsed.view, name)
		if !ok {
			return nil, vfserr.New(vfserr.InvalidAttribute, "unknown attribute").WithAttribute(name).WithComponent("attrs")
		}
		v, ok := p.GetOne(n, name)
		if !ok {
			return nil, vfserr.New(vfserr.InvalidAttribute, "attribute has no value").WithAttribute(name).WithComponent("attrs")
		}
		out[name] = v
	}
	return out, nil
}

// SetInitialAttributes lets every registered provider populate its
// defaults on a freshly-created node, then applies overrides with
// onCreate=true.
func (s *AttributeService) SetInitialAttributes(n *node, overrides map[string]types.AttrValue) error {
	for _, name := range s.order {
		s.providers[name].SetInitialAttributes(n)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, spec := range keys {
		if err := s.SetAttribute(n, spec, overrides[spec], true); err != nil {
			return err
		}
	}
	return nil
}

// ReadAttributesObject instantiates the full attribute set for the
// provider named by class (the view name doubles as its attributes-class
// identifier), failing Unsupported when no such provider is registered.
func (s *AttributeService) ReadAttributesObject(n *node, class string) (map[string]types.AttrValue, error) {
	p, ok := s.providerFor(class)
	if !ok {
		return nil, vfserr.New(vfserr.Unsupported, "no provider registered for attributes class").
			WithAttribute(class).WithComponent("attrs")
	}
	_, attrs := p.Get(n)
	return attrs, nil
}

// ViewFor returns the provider registered for viewClass bound to n, or
// (nil, false) — the "none" sentinel — when the view is not supported.
func (s *AttributeService) ViewFor(n *node, viewClass string) (AttributeProvider, bool) {
	p, ok := s.providerFor(viewClass)
	if !ok {
		return nil, false
	}
	return p, true
}

// EnabledViews returns the view names this registry holds providers for.
func (s *AttributeService) EnabledViews() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
