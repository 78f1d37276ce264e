package usd

import (
	"fmt"

	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/sim"
)

// EntityKey identifies a simulation entity across frames. Keys are derived,
// never invented, so the same entity always maps to the same stage prim.
type EntityKey string

// entityKey derives the stable key for a geom: the simulator-assigned name
// when the object has one, otherwise its object type and id.
func entityKey(m *sim.Model, g sim.Geom) EntityKey {
	if name := m.ObjectName(g.ObjType, g.ObjID); name != "" {
		return EntityKey(name)
	}
	return EntityKey(fmt.Sprintf("%s_%d", g.ObjType, g.ObjID))
}

// geomBinding pairs an entity key with its stage prim. A nil prim records
// the definitive decision that the entity cannot be represented, so the
// question is never re-asked.
type geomBinding struct {
	key  EntityKey
	kind sim.GeomKind
	prim *stage.Prim

	// retired marks an entity that has dropped out of the scene. A retired
	// binding already carries its closing invisible sample and is left alone
	// until the entity reappears.
	retired bool
}

func (b *geomBinding) represented() bool { return b.prim != nil }

func (b *geomBinding) setPose(pos [3]float64, rot [9]float64, frame float64) {
	authorPose(b.prim, pos, rot, frame)
}

func (b *geomBinding) setVisible(visible bool, frame float64) {
	authorVisibility(b.prim, visible, frame)
}

// allocPrimName sanitizes a key into a prim name that is unique within the
// session. Distinct keys can sanitize to the same text, so collisions get a
// numeric suffix.
func (e *Exporter) allocPrimName(key string) string {
	base := stage.SanitizeName(key)
	name := base
	for i := 1; e.usedNames[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	e.usedNames[name] = true
	return name
}
