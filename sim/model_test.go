package sim

import "testing"

func TestTextureForMaterial(t *testing.T) {
	model := &Model{
		Textures: []Texture{
			{Width: 4, Height: 4},
			{Width: 8, Height: 8},
		},
		Materials: []Material{
			{Name: "grid", TextureID: 1},
			{Name: "flat", TextureID: -1},
			{Name: "stale", TextureID: 7},
		},
	}

	tests := []struct {
		name    string
		matID   int
		wantTex int
		wantOK  bool
	}{
		{"textured material", 0, 1, true},
		{"untextured material", 1, 0, false},
		{"texture index out of range", 2, 0, false},
		{"material below range", -1, 0, false},
		{"material above range", 3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, ok := model.TextureForMaterial(tt.matID)
			if ok != tt.wantOK {
				t.Fatalf("TextureForMaterial(%d) ok = %v, want %v", tt.matID, ok, tt.wantOK)
			}
			if ok && tex != tt.wantTex {
				t.Errorf("TextureForMaterial(%d) = %d, want %d", tt.matID, tex, tt.wantTex)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	model := &Model{
		Names: map[NameKey]string{
			{Type: ObjGeom, ID: 0}: "floor",
			{Type: ObjBody, ID: 0}: "torso",
		},
	}

	if got := model.ObjectName(ObjGeom, 0); got != "floor" {
		t.Errorf("ObjectName(geom, 0) = %q, want floor", got)
	}
	if got := model.ObjectName(ObjBody, 0); got != "torso" {
		t.Errorf("ObjectName(body, 0) = %q, want torso", got)
	}
	if got := model.ObjectName(ObjGeom, 12); got != "" {
		t.Errorf("ObjectName for unnamed object = %q, want empty", got)
	}
}

func TestMaterialName(t *testing.T) {
	model := &Model{
		Materials: []Material{{Name: "grid", TextureID: 0}},
	}

	if got := model.MaterialName(0); got != "grid" {
		t.Errorf("MaterialName(0) = %q, want grid", got)
	}
	if got := model.MaterialName(-1); got != "" {
		t.Errorf("MaterialName(-1) = %q, want empty", got)
	}
	if got := model.MaterialName(5); got != "" {
		t.Errorf("MaterialName(5) = %q, want empty", got)
	}
}

func TestGeomKindString(t *testing.T) {
	tests := []struct {
		kind GeomKind
		want string
	}{
		{GeomPlane, "plane"},
		{GeomHField, "hfield"},
		{GeomSphere, "sphere"},
		{GeomCapsule, "capsule"},
		{GeomEllipsoid, "ellipsoid"},
		{GeomCylinder, "cylinder"},
		{GeomBox, "box"},
		{GeomMesh, "mesh"},
		{GeomSDF, "sdf"},
		{GeomKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("GeomKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestObjTypeString(t *testing.T) {
	tests := []struct {
		typ  ObjType
		want string
	}{
		{ObjBody, "body"},
		{ObjGeom, "geom"},
		{ObjSite, "site"},
		{ObjUnknown, "unknown"},
		{ObjType(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ObjType(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}
