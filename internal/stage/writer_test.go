package stage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/guillaume10/mujoco/internal/testutil"
)

func TestWrite_Golden(t *testing.T) {
	s := New()
	testutil.AssertNoError(t, s.SetUpAxis("Z"))
	s.SetStartTimeCode(0)
	s.SetEndTimeCode(2)
	s.SetTimeCodesPerSecond(24)

	world, err := s.Define("/World", "Xform")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.SetDefaultPrim(world))

	ball, err := s.Define("/World/ball", "Sphere")
	testutil.AssertNoError(t, err)
	ball.SetAttr("radius", "double", Float(0.5))
	ball.SetAttrAt("visibility", "token", 1, Token("inherited"))
	ball.SetAttrAt("visibility", "token", 0, Token("invisible"))

	got, err := s.ExportToString()
	testutil.AssertNoError(t, err)

	want := `#usda 1.0
(
    defaultPrim = "World"
    endTimeCode = 2
    startTimeCode = 0
    timeCodesPerSecond = 24
    upAxis = "Z"
)

def Xform "World"
{

    def Sphere "ball"
    {
        double radius = 0.5
        token visibility.timeSamples = {
            0: "invisible",
            1: "inherited",
        }
    }
}
`

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("serialized stage mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_EmptyStage(t *testing.T) {
	s := New()

	got, err := s.ExportToString()
	testutil.AssertNoError(t, err)

	if got != "#usda 1.0\n" {
		t.Errorf("empty stage output = %q, want header only", got)
	}
	testutil.AssertNotContains(t, got, "def ")
}

func TestWrite_Deterministic(t *testing.T) {
	build := func() *Stage {
		s := New()
		s.SetStartTimeCode(0)
		world, err := s.Define("/World", "Xform")
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, s.SetDefaultPrim(world))
		for _, name := range []string{"a", "b", "c"} {
			p, err := s.Define("/World/"+name, "Cube")
			testutil.AssertNoError(t, err)
			for frame := 5; frame >= 0; frame-- {
				p.SetAttrAt("xformOp:transform", "matrix4d", float64(frame), Matrix4{
					1, 0, 0, 0,
					0, 1, 0, 0,
					0, 0, 1, 0,
					float64(frame), 0, 0, 1,
				})
			}
		}
		return s
	}

	first, err := build().ExportToString()
	testutil.AssertNoError(t, err)
	second, err := build().ExportToString()
	testutil.AssertNoError(t, err)

	if first != second {
		t.Error("identical documents serialized differently")
	}

	// Re-export of the same stage must also be byte-identical.
	s := build()
	one, err := s.ExportToString()
	testutil.AssertNoError(t, err)
	two, err := s.ExportToString()
	testutil.AssertNoError(t, err)
	if one != two {
		t.Error("re-export of the same stage produced different bytes")
	}
}

func TestWrite_PropertiesSortedByName(t *testing.T) {
	s := New()
	world, err := s.Define("/World", "Xform")
	testutil.AssertNoError(t, err)

	// Author in reverse name order.
	world.SetAttr("zeta", "double", Float(1))
	world.SetAttr("alpha", "double", Float(2))

	got, err := s.ExportToString()
	testutil.AssertNoError(t, err)

	alphaAt := strings.Index(got, "alpha")
	zetaAt := strings.Index(got, "zeta")
	if alphaAt < 0 || zetaAt < 0 || alphaAt > zetaAt {
		t.Errorf("properties not sorted by name:\n%s", got)
	}
}

func TestWrite_RelationshipAndConnection(t *testing.T) {
	s := New()
	world, err := s.Define("/World", "Xform")
	testutil.AssertNoError(t, err)
	ball, err := s.Define("/World/ball", "Sphere")
	testutil.AssertNoError(t, err)

	ball.SetRelationship("material:binding", "/World/Looks/checker")
	ball.ApplySchema("MaterialBindingAPI")
	world.SetConnection("outputs:surface", "token", "/World/Looks/checker/surface.outputs:surface")

	got, err := s.ExportToString()
	testutil.AssertNoError(t, err)

	testutil.AssertContains(t, got, "rel material:binding = </World/Looks/checker>")
	testutil.AssertContains(t, got, "token outputs:surface.connect = </World/Looks/checker/surface.outputs:surface>")
	testutil.AssertContains(t, got, "prepend apiSchemas = [\"MaterialBindingAPI\"]")
}

func TestWrite_BareDeclarationAndInterpolation(t *testing.T) {
	s := New()
	world, err := s.Define("/World", "Xform")
	testutil.AssertNoError(t, err)
	shader, err := s.Define("/World/surface", "Shader")
	testutil.AssertNoError(t, err)

	shader.DeclareAttr("outputs:surface", "token")
	world.SetAttr("primvars:st", "texCoord2f[]", Vec2Array{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	world.SetInterpolation("primvars:st", "faceVarying")

	got, err := s.ExportToString()
	testutil.AssertNoError(t, err)

	testutil.AssertContains(t, got, "        token outputs:surface\n")
	testutil.AssertContains(t, got, `interpolation = "faceVarying"`)
}

func TestWrite_UnsupportedValueType(t *testing.T) {
	s := New()
	world, err := s.Define("/World", "Xform")
	testutil.AssertNoError(t, err)

	// A raw int is not one of the declared value types.
	world.SetAttr("bad", "int", 42)

	_, err = s.ExportToString()
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "/World") || !strings.Contains(err.Error(), "bad") {
		t.Errorf("error %q should name the prim and attribute", err)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		v        any
		expected string
	}{
		{"float", Float(1.5), "1.5"},
		{"float integral", Float(24), "24"},
		{"float negative zero", Float(negZero()), "0"},
		{"token", Token("inherited"), `"inherited"`},
		{"asset path", AssetPath("../assets/texture_0.png"), "@../assets/texture_0.png@"},
		{"vec3", Vec3{0.25, 0.5, 1}, "(0.25, 0.5, 1)"},
		{"matrix identity", Matrix4{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}, "( (1, 0, 0, 0), (0, 1, 0, 0), (0, 0, 1, 0), (0, 0, 0, 1) )"},
		{"float array", FloatArray{1, 0.5}, "[1, 0.5]"},
		{"vec2 array", Vec2Array{{0, 0}, {1, 1}}, "[(0, 0), (1, 1)]"},
		{"vec3 array", Vec3Array{{1, 2, 3}}, "[(1, 2, 3)]"},
		{"int array", IntArray{0, 1, 2}, "[0, 1, 2]"},
		{"empty int array", IntArray{}, "[]"},
		{"token array", TokenArray{"xformOp:transform", "xformOp:scale"}, `["xformOp:transform", "xformOp:scale"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatValue(tt.v)
			if err != nil {
				t.Fatalf("formatValue failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("formatValue(%v) = %q, want %q", tt.v, got, tt.expected)
			}
		})
	}

	if _, err := formatValue("raw string"); err == nil {
		t.Error("formatValue should reject undeclared value types")
	}
}

func negZero() float64 {
	z := 0.0
	return -z
}
