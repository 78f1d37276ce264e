package usd

import (
	"fmt"

	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/sim"
)

// builderFunc creates the stage subtree for one geom kind and authors its
// static parameters: shape dimensions, appearance and transform op order.
// Builders run once per entity, at first sight.
type builderFunc func(e *Exporter, g sim.Geom, name string) (*stage.Prim, error)

// builders maps each representable geom kind to its prim builder. Kinds
// absent from the table have no stage representation and their entities are
// omitted.
var builders = map[sim.GeomKind]builderFunc{
	sim.GeomPlane:     buildPlane,
	sim.GeomSphere:    buildSphere,
	sim.GeomCapsule:   buildCapsule,
	sim.GeomEllipsoid: buildEllipsoid,
	sim.GeomCylinder:  buildCylinder,
	sim.GeomBox:       buildBox,
	sim.GeomMesh:      buildMesh,
}

// planeFallbackExtent bounds planes whose size the simulation leaves at
// zero, meaning unbounded.
const planeFallbackExtent = 100.0

// defineXformable creates a world-level prim and declares its transform op
// order, with an optional static scale op for kinds sized by scaling.
func (e *Exporter) defineXformable(name, typeName string, scaled bool) (*stage.Prim, error) {
	p, err := e.st.Define(worldPath+"/"+name, typeName)
	if err != nil {
		return nil, err
	}
	ops := stage.TokenArray{"xformOp:transform"}
	if scaled {
		ops = append(ops, "xformOp:scale")
	}
	p.SetAttr("xformOpOrder", "uniform token[]", ops)
	return p, nil
}

func buildSphere(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	p, err := e.defineXformable(name, "Sphere", false)
	if err != nil {
		return nil, err
	}
	p.SetAttr("radius", "double", stage.Float(g.Size[0]))
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildBox(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	p, err := e.defineXformable(name, "Cube", true)
	if err != nil {
		return nil, err
	}
	// A size-2 cube spans [-1, 1] per axis, so the simulation's half-extents
	// apply directly as scale.
	p.SetAttr("size", "double", stage.Float(2))
	p.SetAttr("xformOp:scale", "float3", stage.Vec3{g.Size[0], g.Size[1], g.Size[2]})
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildEllipsoid(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	p, err := e.defineXformable(name, "Sphere", true)
	if err != nil {
		return nil, err
	}
	// Unit sphere stretched by the per-axis radii.
	p.SetAttr("radius", "double", stage.Float(1))
	p.SetAttr("xformOp:scale", "float3", stage.Vec3{g.Size[0], g.Size[1], g.Size[2]})
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildCapsule(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	p, err := e.defineXformable(name, "Capsule", false)
	if err != nil {
		return nil, err
	}
	p.SetAttr("radius", "double", stage.Float(g.Size[0]))
	// Size stores radius and the half-length of the cylindrical section.
	p.SetAttr("height", "double", stage.Float(2*g.Size[1]))
	p.SetAttr("axis", "uniform token", stage.Token("Z"))
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildCylinder(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	p, err := e.defineXformable(name, "Cylinder", false)
	if err != nil {
		return nil, err
	}
	p.SetAttr("radius", "double", stage.Float(g.Size[0]))
	p.SetAttr("height", "double", stage.Float(2*g.Size[1]))
	p.SetAttr("axis", "uniform token", stage.Token("Z"))
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildPlane(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	sx, sy := g.Size[0], g.Size[1]
	if sx <= 0 {
		sx = planeFallbackExtent
	}
	if sy <= 0 {
		sy = planeFallbackExtent
	}

	p, err := e.defineXformable(name, "Mesh", false)
	if err != nil {
		return nil, err
	}
	p.SetAttr("points", "point3f[]", stage.Vec3Array{
		{-sx, -sy, 0},
		{sx, -sy, 0},
		{sx, sy, 0},
		{-sx, sy, 0},
	})
	p.SetAttr("faceVertexCounts", "int[]", stage.IntArray{4})
	p.SetAttr("faceVertexIndices", "int[]", stage.IntArray{0, 1, 2, 3})
	p.SetAttr("primvars:st", "texCoord2f[]", stage.Vec2Array{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	p.SetInterpolation("primvars:st", "faceVarying")
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

func buildMesh(e *Exporter, g sim.Geom, name string) (*stage.Prim, error) {
	if g.DataID < 0 || g.DataID >= len(e.model.Meshes) {
		return nil, fmt.Errorf("mesh geom references invalid mesh id %d", g.DataID)
	}
	mesh := e.model.Meshes[g.DataID]
	if len(mesh.FaceIndices)%3 != 0 {
		return nil, fmt.Errorf("mesh %d: face index count %d is not a whole number of triangles",
			g.DataID, len(mesh.FaceIndices))
	}

	p, err := e.defineXformable(name, "Mesh", false)
	if err != nil {
		return nil, err
	}
	p.SetAttr("points", "point3f[]", stage.Vec3Array(mesh.Points))
	counts := make(stage.IntArray, len(mesh.FaceIndices)/3)
	for i := range counts {
		counts[i] = 3
	}
	p.SetAttr("faceVertexCounts", "int[]", counts)
	p.SetAttr("faceVertexIndices", "int[]", stage.IntArray(mesh.FaceIndices))
	if len(mesh.TexCoords) > 0 {
		p.SetAttr("primvars:st", "texCoord2f[]", stage.Vec2Array(mesh.TexCoords))
		p.SetInterpolation("primvars:st", "faceVarying")
	}
	if err := e.attachAppearance(p, g); err != nil {
		return nil, err
	}
	return p, nil
}

// matrixForPose packs a rotation and translation into the stage's row-vector
// transform convention: the rotation transposed into the upper-left 3x3 and
// the translation in the bottom row.
func matrixForPose(pos [3]float64, rot [9]float64) stage.Matrix4 {
	return stage.Matrix4{
		rot[0], rot[3], rot[6], 0,
		rot[1], rot[4], rot[7], 0,
		rot[2], rot[5], rot[8], 0,
		pos[0], pos[1], pos[2], 1,
	}
}

func authorPose(p *stage.Prim, pos [3]float64, rot [9]float64, frame float64) {
	p.SetAttrAt("xformOp:transform", "matrix4d", frame, matrixForPose(pos, rot))
}

func authorVisibility(p *stage.Prim, visible bool, frame float64) {
	v := stage.Token("invisible")
	if visible {
		v = stage.Token("inherited")
	}
	p.SetAttrAt("visibility", "token", frame, v)
}

func identityRot() [9]float64 {
	return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
}
