package stage

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute value types accepted by Prim.SetAttr and Prim.SetAttrAt. Each maps
// to one usda literal form. The declared attribute type (for example "double",
// "color3f" or "matrix4d") travels separately as the attribute's type name.
type (
	// Float is any scalar numeric value.
	Float float64

	// Token is a quoted token literal such as "inherited" or "Z".
	Token string

	// AssetPath is an @-delimited asset reference such as a texture file.
	AssetPath string

	// Vec3 is a 3-component vector or color.
	Vec3 [3]float64

	// Matrix4 is a row-major 4x4 matrix.
	Matrix4 [16]float64

	// FloatArray is a list of scalars, used for per-prim display opacity.
	FloatArray []float64

	// Vec2Array is a list of 2-component vectors, used for texture coordinates.
	Vec2Array [][2]float64

	// Vec3Array is a list of 3-component vectors, used for points and colors.
	Vec3Array [][3]float64

	// IntArray is a list of integers, used for mesh topology.
	IntArray []int

	// TokenArray is a list of quoted tokens, used for transform op ordering.
	TokenArray []string
)

// formatFloat renders a float the way usda expects: shortest round-trippable
// decimal, with negative zero collapsed.
func formatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatVec3(v [3]float64) string {
	return "(" + formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " + formatFloat(v[2]) + ")"
}

func formatVec2(v [2]float64) string {
	return "(" + formatFloat(v[0]) + ", " + formatFloat(v[1]) + ")"
}

// formatValue renders a value as a usda literal.
func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case Float:
		return formatFloat(float64(x)), nil
	case Token:
		return strconv.Quote(string(x)), nil
	case AssetPath:
		return "@" + string(x) + "@", nil
	case Vec3:
		return formatVec3(x), nil
	case Matrix4:
		rows := make([]string, 4)
		for r := 0; r < 4; r++ {
			rows[r] = "(" + formatFloat(x[4*r]) + ", " + formatFloat(x[4*r+1]) + ", " +
				formatFloat(x[4*r+2]) + ", " + formatFloat(x[4*r+3]) + ")"
		}
		return "( " + strings.Join(rows, ", ") + " )", nil
	case FloatArray:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case Vec2Array:
		parts := make([]string, len(x))
		for i, v := range x {
			parts[i] = formatVec2(v)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case Vec3Array:
		parts := make([]string, len(x))
		for i, v := range x {
			parts[i] = formatVec3(v)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case IntArray:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case TokenArray:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("unsupported attribute value type %T", v)
	}
}

// validIdentifier reports whether s is a legal prim or property name segment:
// a leading letter or underscore followed by letters, digits or underscores.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SanitizeName converts an arbitrary entity name into a legal prim name.
// Illegal runes are replaced with underscores and a leading digit is prefixed
// with one. An empty name becomes a single underscore.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
