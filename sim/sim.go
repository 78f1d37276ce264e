// Package sim defines the data contract between a running physics simulation
// and the scene exporter: a static Model describing textures, materials and
// meshes, and per-step Scene snapshots of renderable state.
//
// The package does not simulate anything itself. Real integrations adapt
// their engine's state to these types; DemoSource provides a deterministic
// canned simulation for tools and tests.
package sim

// ObjType identifies the simulator object category an entity belongs to.
type ObjType int

const (
	ObjUnknown ObjType = iota
	ObjBody
	ObjGeom
	ObjSite
)

func (t ObjType) String() string {
	switch t {
	case ObjBody:
		return "body"
	case ObjGeom:
		return "geom"
	case ObjSite:
		return "site"
	default:
		return "unknown"
	}
}

// GeomKind is the closed set of shape categories a simulation geom can take.
// The numbering follows the simulator's own geom type table.
type GeomKind int

const (
	GeomPlane GeomKind = iota
	GeomHField
	GeomSphere
	GeomCapsule
	GeomEllipsoid
	GeomCylinder
	GeomBox
	GeomMesh
	GeomSDF
)

func (k GeomKind) String() string {
	switch k {
	case GeomPlane:
		return "plane"
	case GeomHField:
		return "hfield"
	case GeomSphere:
		return "sphere"
	case GeomCapsule:
		return "capsule"
	case GeomEllipsoid:
		return "ellipsoid"
	case GeomCylinder:
		return "cylinder"
	case GeomBox:
		return "box"
	case GeomMesh:
		return "mesh"
	case GeomSDF:
		return "sdf"
	default:
		return "unknown"
	}
}

// Geom is one renderable instance captured from the simulation scene.
type Geom struct {
	// ObjType and ObjID identify the underlying simulation object. Together
	// they are stable across steps even as the scene list reorders.
	ObjType ObjType
	ObjID   int

	Kind GeomKind

	Pos  [3]float64
	Mat  [9]float64 // row-major rotation
	Size [3]float64 // kind-specific dimensions, typically half-extents

	RGBA   [4]float64
	MatID  int // material table index; -1 when unset
	DataID int // mesh table index for GeomMesh; -1 otherwise
}

// Light is one light captured from the simulation scene.
type Light struct {
	Pos     [3]float64
	Diffuse [3]float64
}

// CameraView is one eye of the renderer's stereo camera pair.
type CameraView struct {
	Pos     [3]float64
	Forward [3]float64
	Up      [3]float64
}

// Scene is the per-step snapshot the exporter consumes. Geoms and Lights are
// refreshed on every Refresh call; Stereo is only meaningful after a Refresh
// that named a camera.
type Scene struct {
	Geoms  []Geom
	Lights []Light
	Stereo [2]CameraView
}

// Source produces fresh scene snapshots from a running simulation.
type Source interface {
	// Refresh re-populates the scene from current simulation state. A
	// non-empty camera name frames the scene through that camera and fills
	// the stereo views.
	Refresh(camera string) error

	// Scene returns the snapshot produced by the last Refresh. Callers must
	// treat it as read-only; it remains valid until the next Refresh.
	Scene() *Scene
}
