package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/guillaume10/mujoco/internal/units"
)

// DemoCamera is the camera name DemoSource responds to.
const DemoCamera = "track"

// Object ids used by the demo scene. The spark sphere joins at step 3 and
// leaves after step 5 to exercise entity lifecycle handling downstream.
const (
	demoFloor = iota
	demoBall
	demoCrate
	demoPill
	demoBlob
	demoPost
	demoRock
	demoTerrain
	demoSpark
)

// DemoSource is a small deterministic canned simulation: a textured floor, a
// bouncing ball, a spinning crate and friends covering every geom kind, two
// lights and an orbiting stereo camera. Stepping is closed-form, so a given
// step count always produces the same scene.
type DemoSource struct {
	model *Model
	scene Scene
	step  int
}

// NewDemoSource builds the demo simulation at step zero.
func NewDemoSource() *DemoSource {
	grid := checkerTexture(8, 8, [3]float64{0.25, 0.25, 0.25}, [3]float64{0.9, 0.9, 0.9})
	skin := stripeTexture(8, 8, [3]float64{0.85, 0.3, 0.1}, [3]float64{0.95, 0.75, 0.2})

	model := &Model{
		OffWidth:  640,
		OffHeight: 480,
		Textures: []Texture{
			{Width: 8, Height: 8},
			{Width: 8, Height: 8},
		},
		TexData: append(append([]byte{}, grid...), skin...),
		Materials: []Material{
			{Name: "grid", TextureID: 0},
			{Name: "ballskin", TextureID: 1},
			{Name: "flat", TextureID: -1},
		},
		Meshes: []MeshData{tetraMesh()},
		Names: map[NameKey]string{
			{Type: ObjGeom, ID: demoFloor}: "floor",
			{Type: ObjGeom, ID: demoBall}:  "ball",
			// demoCrate is deliberately unnamed.
			{Type: ObjGeom, ID: demoPill}:    "pill",
			{Type: ObjGeom, ID: demoBlob}:    "blob",
			{Type: ObjGeom, ID: demoPost}:    "post",
			{Type: ObjGeom, ID: demoRock}:    "rock",
			{Type: ObjGeom, ID: demoTerrain}: "terrain",
			{Type: ObjGeom, ID: demoSpark}:   "spark",
		},
	}

	return &DemoSource{model: model}
}

// Model returns the static model backing the demo scene.
func (s *DemoSource) Model() *Model { return s.model }

// Step advances the simulation by one tick.
func (s *DemoSource) Step() { s.step++ }

// StepCount returns the number of ticks taken so far.
func (s *DemoSource) StepCount() int { return s.step }

// Refresh rebuilds the scene snapshot for the current step.
func (s *DemoSource) Refresh(camera string) error {
	t := float64(s.step)

	geoms := []Geom{
		{
			ObjType: ObjGeom, ObjID: demoFloor, Kind: GeomPlane,
			Pos: [3]float64{0, 0, 0}, Mat: identity3(),
			Size: [3]float64{2, 2, 0.1},
			RGBA: [4]float64{0.8, 0.8, 0.8, 1}, MatID: 0, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoBall, Kind: GeomSphere,
			Pos: [3]float64{
				0.3 * math.Sin(0.05*t),
				0.2 * math.Cos(0.05*t),
				0.15 + 0.8*math.Abs(math.Sin(0.12*t)),
			},
			Mat:  identity3(),
			Size: [3]float64{0.15, 0, 0},
			RGBA: [4]float64{1, 1, 1, 1}, MatID: 1, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoCrate, Kind: GeomBox,
			Pos: [3]float64{0.8, -0.5, 0.1}, Mat: rotZ(0.1 * t),
			Size: [3]float64{0.2, 0.15, 0.1},
			RGBA: [4]float64{0.6, 0.35, 0.2, 1}, MatID: 2, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoPill, Kind: GeomCapsule,
			Pos: [3]float64{-0.9, -0.2, 0.08}, Mat: rotX(math.Pi / 2),
			Size: [3]float64{0.08, 0.25, 0},
			RGBA: [4]float64{0.2, 0.5, 0.8, 1}, MatID: -1, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoBlob, Kind: GeomEllipsoid,
			Pos: [3]float64{-0.7, 0.6, 0.12}, Mat: rotZ(0.03 * t),
			Size: [3]float64{0.2, 0.12, 0.08},
			RGBA: [4]float64{0.4, 0.8, 0.3, 1}, MatID: -1, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoPost, Kind: GeomCylinder,
			Pos: [3]float64{0.5, 0.9, 0.15}, Mat: identity3(),
			Size: [3]float64{0.1, 0.15, 0},
			RGBA: [4]float64{0.7, 0.7, 0.75, 1}, MatID: -1, DataID: -1,
		},
		{
			ObjType: ObjGeom, ObjID: demoRock, Kind: GeomMesh,
			Pos: [3]float64{-0.5, -0.8, 0.2}, Mat: rotZ(0.07 * t),
			Size: [3]float64{1, 1, 1},
			RGBA: [4]float64{0.5, 0.45, 0.4, 1}, MatID: -1, DataID: 0,
		},
		{
			ObjType: ObjGeom, ObjID: demoTerrain, Kind: GeomHField,
			Pos: [3]float64{0, 0, -0.5}, Mat: identity3(),
			Size: [3]float64{2, 2, 0.3},
			RGBA: [4]float64{0.3, 0.3, 0.3, 1}, MatID: -1, DataID: -1,
		},
	}

	if s.step >= 3 && s.step <= 5 {
		geoms = append(geoms, Geom{
			ObjType: ObjGeom, ObjID: demoSpark, Kind: GeomSphere,
			Pos: [3]float64{0, 0.4, 0.5 + 0.1*math.Sin(t)}, Mat: identity3(),
			Size: [3]float64{0.05, 0, 0},
			RGBA: [4]float64{1, 1, 0.8, 1}, MatID: -1, DataID: -1,
		})
	}

	s.scene.Geoms = geoms
	s.scene.Lights = []Light{
		{Pos: [3]float64{1, -1, 3}, Diffuse: [3]float64{0.9, 0.85, 0.8}},
		// A light parked at the origin; downstream consumers treat these as
		// headlamps and skip them.
		{Pos: [3]float64{0, 0, 0}, Diffuse: [3]float64{0.4, 0.4, 0.4}},
	}

	if camera != "" {
		if camera != DemoCamera {
			return fmt.Errorf("unknown camera %q: demo scene only defines %q", camera, DemoCamera)
		}
		s.fillStereo(t)
	}
	return nil
}

// Scene returns the snapshot produced by the last Refresh.
func (s *DemoSource) Scene() *Scene { return &s.scene }

// fillStereo frames the scene from an orbiting eye pair looking at the
// center of the floor.
func (s *DemoSource) fillStereo(t float64) {
	azimuth := 0.05 * t
	eye := r3.Vec{X: 2.5 * math.Cos(azimuth), Y: 2.5 * math.Sin(azimuth), Z: 1.2}
	target := r3.Vec{X: 0, Y: 0, Z: 0.2}

	forward := r3.Unit(r3.Sub(target, eye))
	right := r3.Unit(r3.Cross(forward, r3.Vec{Z: 1}))
	up := r3.Cross(right, forward)

	const eyeOffset = 0.035
	left := r3.Sub(eye, r3.Scale(eyeOffset, right))
	rightEye := r3.Add(eye, r3.Scale(eyeOffset, right))

	s.scene.Stereo = [2]CameraView{
		{Pos: toArray(left), Forward: toArray(forward), Up: toArray(up)},
		{Pos: toArray(rightEye), Forward: toArray(forward), Up: toArray(up)},
	}
}

func toArray(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func identity3() [9]float64 {
	return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func rotZ(a float64) [9]float64 {
	c, s := math.Cos(a), math.Sin(a)
	return [9]float64{c, -s, 0, s, c, 0, 0, 0, 1}
}

func rotX(a float64) [9]float64 {
	c, s := math.Cos(a), math.Sin(a)
	return [9]float64{1, 0, 0, 0, c, -s, 0, s, c}
}

// checkerTexture packs a two-tone checkerboard as bottom-up RGB rows.
func checkerTexture(w, h int, a, b [3]float64) []byte {
	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := a
			if (x/2+y/2)%2 == 1 {
				c = b
			}
			data = append(data, units.UnitToByte(c[0]), units.UnitToByte(c[1]), units.UnitToByte(c[2]))
		}
	}
	return data
}

// stripeTexture packs horizontal stripes that brighten toward the top row,
// so orientation survives into the image and mistakes in row order show up
// visually.
func stripeTexture(w, h int, a, b [3]float64) []byte {
	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		c := a
		if (y/2)%2 == 1 {
			c = b
		}
		scale := 0.5 + 0.5*float64(y)/float64(h-1)
		for x := 0; x < w; x++ {
			data = append(data,
				units.UnitToByte(c[0]*scale),
				units.UnitToByte(c[1]*scale),
				units.UnitToByte(c[2]*scale))
		}
	}
	return data
}

// tetraMesh builds a small irregular tetrahedron.
func tetraMesh() MeshData {
	return MeshData{
		Points: [][3]float64{
			{0.2, 0, -0.1},
			{-0.15, 0.18, -0.1},
			{-0.15, -0.18, -0.1},
			{0, 0, 0.24},
		},
		FaceIndices: []int{
			0, 1, 2,
			0, 3, 1,
			1, 3, 2,
			2, 3, 0,
		},
	}
}
