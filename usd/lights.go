package usd

import (
	"fmt"
	"math"

	"github.com/guillaume10/mujoco/internal/monitoring"
	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/sim"
)

// Lights sitting exactly at the origin are viewer headlamps, not scene
// fixtures.
const lightOriginEps = 1e-8

const defaultLightRadius = 0.3

func nearOrigin(pos [3]float64) bool {
	return math.Abs(pos[0]) < lightOriginEps &&
		math.Abs(pos[1]) < lightOriginEps &&
		math.Abs(pos[2]) < lightOriginEps
}

// lightSlot pairs a scene light index with its stage prim. A nil prim marks a
// light ruled out at discovery.
type lightSlot struct {
	prim *stage.Prim
}

// discoverLights binds the first snapshot's lights to stage prims. Slots keep
// index correspondence with the scene's light array for the whole session.
func (e *Exporter) discoverLights(sc *sim.Scene) {
	for i, l := range sc.Lights {
		if nearOrigin(l.Pos) {
			monitoring.Logf("scene light %d sits at the origin; leaving it out of the stage", i)
			e.lights = append(e.lights, lightSlot{})
			continue
		}
		name := e.allocPrimName(fmt.Sprintf("light_%d", i))
		prim, err := e.defineXformable(name, "SphereLight", false)
		if err != nil {
			monitoring.Logf("scene light %d: %v; leaving it out of the stage", i, err)
			e.lights = append(e.lights, lightSlot{})
			continue
		}
		prim.SetAttr("inputs:radius", "float", stage.Float(defaultLightRadius))
		prim.SetAttr("inputs:intensity", "float", stage.Float(e.opts.LightIntensity))
		e.lights = append(e.lights, lightSlot{prim: prim})
	}
}

// updateLights samples position and color for every bound light at the
// current frame.
func (e *Exporter) updateLights(sc *sim.Scene) {
	frame := float64(e.frame)
	for i, slot := range e.lights {
		if slot.prim == nil || i >= len(sc.Lights) {
			continue
		}
		l := sc.Lights[i]
		authorPose(slot.prim, l.Pos, identityRot(), frame)
		slot.prim.SetAttrAt("inputs:color", "color3f", frame,
			stage.Vec3{l.Diffuse[0], l.Diffuse[1], l.Diffuse[2]})
	}
}

// LightKind selects the USD light schema AddLight defines.
type LightKind int

const (
	LightSphere LightKind = iota
	LightDome
)

func (k LightKind) String() string {
	switch k {
	case LightSphere:
		return "sphere"
	case LightDome:
		return "dome"
	default:
		return fmt.Sprintf("LightKind(%d)", int(k))
	}
}

// AddLightOptions describes a user-supplied light added on top of the
// simulation scene's own fixtures.
type AddLightOptions struct {
	Name      string
	Kind      LightKind
	Pos       [3]float64
	Intensity float64

	// Radius applies to sphere lights. Zero means the 0.3 default.
	Radius float64

	// Color defaults to the simulator's dim gray when left zero.
	Color [3]float64
}

// AddLight defines an extra stage light. Its attributes are authored at the
// start of the sampled range and hold for the whole session.
func (e *Exporter) AddLight(opts AddLightOptions) error {
	if opts.Name == "" {
		return fmt.Errorf("light name required")
	}
	if opts.Kind != LightSphere && opts.Kind != LightDome {
		return fmt.Errorf("unsupported light kind %s", opts.Kind)
	}
	if opts.Radius == 0 {
		opts.Radius = defaultLightRadius
	}
	if opts.Color == ([3]float64{}) {
		opts.Color = [3]float64{0.3, 0.3, 0.3}
	}

	name := e.allocPrimName(opts.Name)
	switch opts.Kind {
	case LightSphere:
		prim, err := e.defineXformable(name, "SphereLight", false)
		if err != nil {
			return err
		}
		authorPose(prim, opts.Pos, identityRot(), 0)
		prim.SetAttr("inputs:radius", "float", stage.Float(opts.Radius))
		prim.SetAttrAt("inputs:intensity", "float", 0, stage.Float(opts.Intensity))
		prim.SetAttrAt("inputs:color", "color3f", 0,
			stage.Vec3{opts.Color[0], opts.Color[1], opts.Color[2]})
	case LightDome:
		// Dome lights surround the scene and carry no transform.
		prim, err := e.st.Define(worldPath+"/"+name, "DomeLight")
		if err != nil {
			return err
		}
		prim.SetAttrAt("inputs:intensity", "float", 0, stage.Float(opts.Intensity))
		prim.SetAttrAt("inputs:color", "color3f", 0,
			stage.Vec3{opts.Color[0], opts.Color[1], opts.Color[2]})
	}
	return nil
}
