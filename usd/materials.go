package usd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/guillaume10/mujoco/internal/fsutil"
	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/internal/units"
	"github.com/guillaume10/mujoco/sim"
)

// MaterialOverride remaps the appearance of one named material. Unset fields
// leave the model's values in effect.
type MaterialOverride struct {
	Name      string      `json:"name"`
	TextureID *int        `json:"texture_id,omitempty"`
	RGBA      *[4]float64 `json:"rgba,omitempty"`
}

// MaterialOverrides is an optional sidecar configuration remapping material
// appearance by material name.
type MaterialOverrides struct {
	Materials []MaterialOverride `json:"materials"`

	byName map[string]*MaterialOverride
}

// LoadMaterialOverrides reads and validates an overrides file.
func LoadMaterialOverrides(fs fsutil.FileSystem, path string) (*MaterialOverrides, error) {
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("overrides file %s must have a .json extension", path)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}

	var ov MaterialOverrides
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	if err := ov.Validate(); err != nil {
		return nil, err
	}
	ov.index()
	return &ov, nil
}

// Validate checks structural correctness independent of any model.
func (o *MaterialOverrides) Validate() error {
	seen := make(map[string]bool)
	for i, m := range o.Materials {
		if m.Name == "" {
			return fmt.Errorf("override %d: material name required", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("override %d: duplicate material %q", i, m.Name)
		}
		seen[m.Name] = true

		if m.TextureID != nil && *m.TextureID < 0 {
			return fmt.Errorf("override %q: texture id must not be negative", m.Name)
		}
		if m.RGBA != nil {
			for _, c := range *m.RGBA {
				if c < 0 || c > 1 {
					return fmt.Errorf("override %q: rgba channels must be in [0, 1]", m.Name)
				}
			}
		}
	}
	return nil
}

// CheckAgainstModel verifies that texture references resolve in the model's
// texture table.
func (o *MaterialOverrides) CheckAgainstModel(m *sim.Model) error {
	for _, ov := range o.Materials {
		if ov.TextureID != nil && *ov.TextureID >= len(m.Textures) {
			return fmt.Errorf("override %q: texture id %d out of range (model has %d textures)",
				ov.Name, *ov.TextureID, len(m.Textures))
		}
	}
	return nil
}

func (o *MaterialOverrides) index() {
	o.byName = make(map[string]*MaterialOverride, len(o.Materials))
	for i := range o.Materials {
		o.byName[o.Materials[i].Name] = &o.Materials[i]
	}
}

// TextureFor returns the override texture for a material name. Safe on a nil
// receiver, which means no overrides are loaded.
func (o *MaterialOverrides) TextureFor(name string) (int, bool) {
	if o == nil || name == "" {
		return 0, false
	}
	ov, ok := o.byName[name]
	if !ok || ov.TextureID == nil {
		return 0, false
	}
	return *ov.TextureID, true
}

// ColorFor returns the override color for a material name. Safe on a nil
// receiver.
func (o *MaterialOverrides) ColorFor(name string) ([4]float64, bool) {
	if o == nil || name == "" {
		return [4]float64{}, false
	}
	ov, ok := o.byName[name]
	if !ok || ov.RGBA == nil {
		return [4]float64{}, false
	}
	return *ov.RGBA, true
}

// effectiveColor applies any override to a geom's display color.
func (e *Exporter) effectiveColor(g sim.Geom) [4]float64 {
	if rgba, ok := e.overrides.ColorFor(e.model.MaterialName(g.MatID)); ok {
		return rgba
	}
	return g.RGBA
}

// textureFor resolves a geom's texture: an override by material name wins,
// then the model's material table.
func (e *Exporter) textureFor(g sim.Geom) (int, bool) {
	if texID, ok := e.overrides.TextureFor(e.model.MaterialName(g.MatID)); ok {
		return texID, true
	}
	return e.model.TextureForMaterial(g.MatID)
}

// attachAppearance authors a geom prim's static display color and opacity
// and binds its texture material when one resolves.
func (e *Exporter) attachAppearance(p *stage.Prim, g sim.Geom) error {
	rgba := e.effectiveColor(g)
	p.SetAttr("primvars:displayColor", "color3f[]", stage.Vec3Array{{
		units.ClampUnit(rgba[0]),
		units.ClampUnit(rgba[1]),
		units.ClampUnit(rgba[2]),
	}})
	p.SetAttr("primvars:displayOpacity", "float[]", stage.FloatArray{units.ClampUnit(rgba[3])})

	texID, ok := e.textureFor(g)
	if !ok {
		return nil
	}
	mat, err := e.ensureLooksMaterial(texID)
	if err != nil {
		return err
	}
	p.SetRelationship("material:binding", mat.Path())
	p.ApplySchema("MaterialBindingAPI")
	return nil
}

// ensureLooksMaterial returns the shared material prim for a texture,
// building the Looks scope and the preview surface shader network on first
// use. Geoms sharing a texture share one material.
func (e *Exporter) ensureLooksMaterial(texID int) (*stage.Prim, error) {
	if mat, ok := e.materialPrims[texID]; ok {
		return mat, nil
	}
	if texID < 0 || texID >= len(e.texturePaths) {
		return nil, fmt.Errorf("texture id %d out of range", texID)
	}

	if e.st.Prim(looksPath) == nil {
		if _, err := e.st.Define(looksPath, "Scope"); err != nil {
			return nil, err
		}
	}

	matPath := fmt.Sprintf("%s/texture_%d_material", looksPath, texID)
	mat, err := e.st.Define(matPath, "Material")
	if err != nil {
		return nil, err
	}

	reader, err := e.st.Define(matPath+"/stReader", "Shader")
	if err != nil {
		return nil, err
	}
	reader.SetAttr("info:id", "uniform token", stage.Token("UsdPrimvarReader_float2"))
	reader.SetAttr("inputs:varname", "token", stage.Token("st"))
	reader.DeclareAttr("outputs:result", "float2")

	tex, err := e.st.Define(matPath+"/diffuseTexture", "Shader")
	if err != nil {
		return nil, err
	}
	tex.SetAttr("info:id", "uniform token", stage.Token("UsdUVTexture"))
	tex.SetAttr("inputs:file", "asset", stage.AssetPath(e.texturePaths[texID]))
	tex.SetConnection("inputs:st", "float2", reader.Path()+".outputs:result")
	tex.SetAttr("inputs:wrapS", "token", stage.Token("repeat"))
	tex.SetAttr("inputs:wrapT", "token", stage.Token("repeat"))
	tex.DeclareAttr("outputs:rgb", "float3")

	surface, err := e.st.Define(matPath+"/surface", "Shader")
	if err != nil {
		return nil, err
	}
	surface.SetAttr("info:id", "uniform token", stage.Token("UsdPreviewSurface"))
	surface.SetConnection("inputs:diffuseColor", "color3f", tex.Path()+".outputs:rgb")
	surface.SetAttr("inputs:roughness", "float", stage.Float(0.8))
	surface.DeclareAttr("outputs:surface", "token")

	mat.SetConnection("outputs:surface", "token", surface.Path()+".outputs:surface")

	e.materialPrims[texID] = mat
	return mat, nil
}
