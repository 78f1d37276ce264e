package sim

// Texture describes one entry in the model's texture table. Pixel data lives
// in Model.TexData, packed sequentially in table order.
type Texture struct {
	Width  int
	Height int
}

// Material is one entry in the model's material table.
type Material struct {
	Name      string
	TextureID int // index into the texture table; -1 when untextured
}

// MeshData is the geometry of one mesh asset: triangle soup with optional
// per-face-vertex texture coordinates.
type MeshData struct {
	Points      [][3]float64
	FaceIndices []int        // flat triangle list, 3 indices per face
	TexCoords   [][2]float64 // optional, one entry per face vertex
}

// NameKey addresses the model's name table.
type NameKey struct {
	Type ObjType
	ID   int
}

// Model carries the static description of a simulation: framebuffer
// capacity, texture, material and mesh tables, and object names. The
// exporter treats it as read-only.
type Model struct {
	// OffWidth and OffHeight are the offscreen framebuffer capacity the
	// simulation was compiled with. Requested render sizes cannot exceed
	// them.
	OffWidth  int
	OffHeight int

	Textures []Texture

	// TexData holds the packed RGB pixel data of every texture in table
	// order. Rows are stored bottom-up.
	TexData []byte

	Materials []Material
	Meshes    []MeshData

	Names map[NameKey]string
}

// ObjectName returns the simulator-assigned name for an object, or "" when
// the object is unnamed.
func (m *Model) ObjectName(typ ObjType, id int) string {
	return m.Names[NameKey{Type: typ, ID: id}]
}

// MaterialName returns the name of a material table entry, or "" when the
// index is out of range.
func (m *Model) MaterialName(matID int) string {
	if matID < 0 || matID >= len(m.Materials) {
		return ""
	}
	return m.Materials[matID].Name
}

// TextureForMaterial resolves a material to its texture table index. It
// reports false when the material is out of range or carries no texture.
func (m *Model) TextureForMaterial(matID int) (int, bool) {
	if matID < 0 || matID >= len(m.Materials) {
		return 0, false
	}
	texID := m.Materials[matID].TextureID
	if texID < 0 || texID >= len(m.Textures) {
		return 0, false
	}
	return texID, true
}
