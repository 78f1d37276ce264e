// Package stage implements an in-memory hierarchical scene document with
// typed prims, time-sampled attributes and a deterministic usda text
// serialization.
//
// The model is deliberately small: it covers the subset of the USD text
// format that physics scene export needs (typed prims, attribute defaults,
// time samples, connections, relationships and stage metadata), and it
// guarantees that serializing the same document twice produces identical
// bytes.
package stage

import (
	"fmt"
	"strings"
)

// Stage is the root of a scene document. It owns stage-level metadata and the
// prim hierarchy.
type Stage struct {
	upAxis             string
	defaultPrim        *Prim
	startTime          float64
	hasStartTime       bool
	endTime            float64
	hasEndTime         bool
	timeCodesPerSecond float64
	hasTimeCodes       bool

	root   []*Prim
	byPath map[string]*Prim
}

// New creates an empty stage with no metadata set. Metadata fields are only
// serialized once their setters have been called.
func New() *Stage {
	return &Stage{
		byPath: make(map[string]*Prim),
	}
}

// SetUpAxis declares the stage's up axis. Only "Y" and "Z" are legal.
func (s *Stage) SetUpAxis(axis string) error {
	if axis != "Y" && axis != "Z" {
		return fmt.Errorf("invalid up axis %q: must be \"Y\" or \"Z\"", axis)
	}
	s.upAxis = axis
	return nil
}

// SetStartTimeCode sets the first time coordinate of the stage's sampled range.
func (s *Stage) SetStartTimeCode(t float64) {
	s.startTime = t
	s.hasStartTime = true
}

// SetEndTimeCode sets the last time coordinate of the stage's sampled range.
func (s *Stage) SetEndTimeCode(t float64) {
	s.endTime = t
	s.hasEndTime = true
}

// SetTimeCodesPerSecond sets the playback rate mapping time codes to seconds.
func (s *Stage) SetTimeCodesPerSecond(rate float64) {
	s.timeCodesPerSecond = rate
	s.hasTimeCodes = true
}

// SetDefaultPrim marks a root-level prim as the stage's default prim.
func (s *Stage) SetDefaultPrim(p *Prim) error {
	if p == nil || p.stage != s {
		return fmt.Errorf("default prim must belong to this stage")
	}
	if p.parent != nil {
		return fmt.Errorf("default prim %s must be a root-level prim", p.path)
	}
	s.defaultPrim = p
	return nil
}

// Define creates a typed prim at the given absolute path. The parent prim
// must already exist unless the path is root-level, and the path must not be
// taken.
func (s *Stage) Define(path, typeName string) (*Prim, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if !validIdentifier(typeName) {
		return nil, fmt.Errorf("invalid prim type %q", typeName)
	}
	if _, ok := s.byPath[path]; ok {
		return nil, fmt.Errorf("prim already defined at %s", path)
	}

	var parent *Prim
	if len(segments) > 1 {
		parentPath := "/" + strings.Join(segments[:len(segments)-1], "/")
		parent = s.byPath[parentPath]
		if parent == nil {
			return nil, fmt.Errorf("cannot define %s: parent prim %s does not exist", path, parentPath)
		}
	}

	p := &Prim{
		stage:     s,
		parent:    parent,
		name:      segments[len(segments)-1],
		typeName:  typeName,
		path:      path,
		propIndex: make(map[string]*property),
	}
	if parent != nil {
		parent.children = append(parent.children, p)
	} else {
		s.root = append(s.root, p)
	}
	s.byPath[path] = p
	return p, nil
}

// Prim returns the prim at the given path, or nil if none is defined there.
func (s *Stage) Prim(path string) *Prim {
	return s.byPath[path]
}

// splitPath validates an absolute prim path and returns its segments.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("prim path %q must be absolute", path)
	}
	segments := strings.Split(path[1:], "/")
	for _, seg := range segments {
		if !validIdentifier(seg) {
			return nil, fmt.Errorf("prim path %q has invalid segment %q", path, seg)
		}
	}
	return segments, nil
}
