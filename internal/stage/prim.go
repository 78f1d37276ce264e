package stage

import "sort"

// Prim is one node in the stage hierarchy: a typed scene object carrying
// properties and child prims.
type Prim struct {
	stage      *Stage
	parent     *Prim
	name       string
	typeName   string
	path       string
	children   []*Prim
	props      []*property
	propIndex  map[string]*property
	apiSchemas []string
}

// property is a single prim property: an attribute with an optional default
// value, time samples or a connection, or a relationship target. An
// attribute with none of those is still emitted as a bare declaration, which
// is how shader outputs are spelled.
type property struct {
	name     string
	typeName string
	def      any
	hasDef   bool
	samples  map[float64]any
	conn     string
	relTo    string
	isRel    bool
	interp   string
}

// Path returns the prim's absolute stage path, for example "/World/ball".
func (p *Prim) Path() string { return p.path }

// Name returns the prim's own name, the last path segment.
func (p *Prim) Name() string { return p.name }

// TypeName returns the prim's schema type, for example "Sphere".
func (p *Prim) TypeName() string { return p.typeName }

func (p *Prim) prop(name, typeName string) *property {
	if pr, ok := p.propIndex[name]; ok {
		return pr
	}
	pr := &property{name: name, typeName: typeName}
	p.props = append(p.props, pr)
	p.propIndex[name] = pr
	return pr
}

// SetAttr authors an attribute's default (untimed) value, creating the
// attribute if needed.
func (p *Prim) SetAttr(name, typeName string, v any) {
	pr := p.prop(name, typeName)
	pr.def = v
	pr.hasDef = true
}

// SetAttrAt authors an attribute value at one time sample. Re-authoring the
// same sample replaces it.
func (p *Prim) SetAttrAt(name, typeName string, frame float64, v any) {
	pr := p.prop(name, typeName)
	if pr.samples == nil {
		pr.samples = make(map[float64]any)
	}
	pr.samples[frame] = v
}

// DeclareAttr authors an attribute with no value, connection or samples: a
// bare declaration such as a shader output.
func (p *Prim) DeclareAttr(name, typeName string) {
	p.prop(name, typeName)
}

// SetConnection authors an attribute whose value is a connection to another
// property, for example a shader input driven by a texture output.
func (p *Prim) SetConnection(name, typeName, target string) {
	pr := p.prop(name, typeName)
	pr.conn = target
}

// SetInterpolation attaches primvar interpolation metadata to an attribute's
// default value declaration.
func (p *Prim) SetInterpolation(name, interp string) {
	if pr, ok := p.propIndex[name]; ok {
		pr.interp = interp
	}
}

// SetRelationship authors a relationship targeting another prim, for example
// a material binding.
func (p *Prim) SetRelationship(name, target string) {
	pr := p.prop(name, "")
	pr.isRel = true
	pr.relTo = target
}

// ApplySchema records an applied API schema, rendered as prim metadata.
func (p *Prim) ApplySchema(name string) {
	for _, s := range p.apiSchemas {
		if s == name {
			return
		}
	}
	p.apiSchemas = append(p.apiSchemas, name)
}

// DefaultValue returns an attribute's default value, if one was authored.
func (p *Prim) DefaultValue(name string) (any, bool) {
	pr, ok := p.propIndex[name]
	if !ok || !pr.hasDef {
		return nil, false
	}
	return pr.def, true
}

// SampleAt returns the attribute value authored at exactly the given frame.
func (p *Prim) SampleAt(name string, frame float64) (any, bool) {
	pr, ok := p.propIndex[name]
	if !ok || pr.samples == nil {
		return nil, false
	}
	v, ok := pr.samples[frame]
	return v, ok
}

// SampleTimes returns the sorted time coordinates an attribute is sampled at.
func (p *Prim) SampleTimes(name string) []float64 {
	pr, ok := p.propIndex[name]
	if !ok || len(pr.samples) == 0 {
		return nil
	}
	times := make([]float64, 0, len(pr.samples))
	for t := range pr.samples {
		times = append(times, t)
	}
	sort.Float64s(times)
	return times
}

// Children returns the prim's child prims in definition order.
func (p *Prim) Children() []*Prim {
	out := make([]*Prim, len(p.children))
	copy(out, p.children)
	return out
}
