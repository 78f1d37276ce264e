package usd

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/internal/units"
	"github.com/guillaume10/mujoco/sim"
)

const axisEps = 1e-12

// cameraRig pairs a tracked simulation camera with its stage prim.
type cameraRig struct {
	name string
	prim *stage.Prim
}

// discoverCameras defines a stage camera for every tracked camera name.
func (e *Exporter) discoverCameras() error {
	for _, camName := range e.opts.CameraNames {
		prim, err := e.defineXformable(e.allocPrimName(camName), "Camera", false)
		if err != nil {
			return fmt.Errorf("define camera %q: %w", camName, err)
		}
		e.cameras = append(e.cameras, cameraRig{name: camName, prim: prim})
	}
	return nil
}

// updateCameras re-renders the scene through each tracked camera and samples
// the resulting viewpoint at the current frame.
func (e *Exporter) updateCameras() error {
	frame := float64(e.frame)
	for _, rig := range e.cameras {
		if err := e.source.Refresh(rig.name); err != nil {
			return fmt.Errorf("refresh camera %q: %w", rig.name, err)
		}
		sc := e.source.Scene()
		view := averageStereo(sc.Stereo[0], sc.Stereo[1])
		rot, err := cameraOrientation(view)
		if err != nil {
			return fmt.Errorf("camera %q: %w", rig.name, err)
		}
		authorPose(rig.prim, view.Pos, rot, frame)
	}
	return nil
}

// averageStereo collapses a stereo pair into a single centered viewpoint.
func averageStereo(left, right sim.CameraView) sim.CameraView {
	avg := sim.CameraView{
		Pos: [3]float64{
			(left.Pos[0] + right.Pos[0]) / 2,
			(left.Pos[1] + right.Pos[1]) / 2,
			(left.Pos[2] + right.Pos[2]) / 2,
		},
	}
	f := r3.Add(vec3(left.Forward), vec3(right.Forward))
	u := r3.Add(vec3(left.Up), vec3(right.Up))
	if r3.Norm(f) > axisEps {
		f = r3.Unit(f)
	}
	if r3.Norm(u) > axisEps {
		u = r3.Unit(u)
	}
	avg.Forward = arr3(f)
	avg.Up = arr3(u)
	return avg
}

// cameraOrientation builds the world rotation whose columns carry the view
// basis. Stage cameras look down their local -Z axis with +Y up.
func cameraOrientation(view sim.CameraView) ([9]float64, error) {
	f := vec3(view.Forward)
	u := vec3(view.Up)
	if r3.Norm(f) < axisEps {
		return [9]float64{}, fmt.Errorf("camera forward axis is degenerate")
	}
	if r3.Norm(u) < axisEps {
		return [9]float64{}, fmt.Errorf("camera up axis is degenerate")
	}
	f = r3.Unit(f)
	u = r3.Unit(u)

	right := r3.Cross(f, u)
	if r3.Norm(right) < axisEps {
		return [9]float64{}, fmt.Errorf("camera forward and up axes are parallel")
	}
	right = r3.Unit(right)

	return [9]float64{
		right.X, u.X, -f.X,
		right.Y, u.Y, -f.Y,
		right.Z, u.Z, -f.Z,
	}, nil
}

// AddCameraOptions describes a fixed camera placed by hand rather than
// tracked from the simulation.
type AddCameraOptions struct {
	Name string
	Pos  [3]float64

	// EulerDeg is an extrinsic x, y, z rotation in degrees.
	EulerDeg [3]float64
}

// AddCamera defines a static stage camera posed once at the start of the
// sampled range.
func (e *Exporter) AddCamera(opts AddCameraOptions) error {
	if opts.Name == "" {
		return fmt.Errorf("camera name required")
	}
	prim, err := e.defineXformable(e.allocPrimName(opts.Name), "Camera", false)
	if err != nil {
		return err
	}
	authorPose(prim, opts.Pos, eulerXYZRotation(opts.EulerDeg), 0)
	return nil
}

// eulerXYZRotation composes extrinsic rotations about the fixed x, y and z
// axes, in that order, into a row-major matrix.
func eulerXYZRotation(deg [3]float64) [9]float64 {
	rx := r3.NewRotation(units.DegToRad(deg[0]), r3.Vec{X: 1})
	ry := r3.NewRotation(units.DegToRad(deg[1]), r3.Vec{Y: 1})
	rz := r3.NewRotation(units.DegToRad(deg[2]), r3.Vec{Z: 1})

	apply := func(v r3.Vec) r3.Vec { return rz.Rotate(ry.Rotate(rx.Rotate(v))) }
	cx := apply(r3.Vec{X: 1})
	cy := apply(r3.Vec{Y: 1})
	cz := apply(r3.Vec{Z: 1})
	return [9]float64{
		cx.X, cy.X, cz.X,
		cx.Y, cy.Y, cz.Y,
		cx.Z, cy.Z, cz.Z,
	}
}

func vec3(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func arr3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
