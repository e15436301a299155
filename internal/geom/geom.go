package geom

import (
	"fmt"
	"math"
)

// Epsilon is the near-zero threshold for geometric tests.
const Epsilon = 1e-9

// Point2 is a position in the XY plane, in millimetres.
type Point2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point2{X: x, Y: y}.
func Pt(x, y float64) Point2 {
	return Point2{X: x, Y: y}
}

// Sub returns the vector from o to p.
func (p Point2) Sub(o Point2) Vec2 {
	return Vec2{X: p.X - o.X, Y: p.Y - o.Y}
}

// Add translates p by v.
func (p Point2) Add(v Vec2) Point2 {
	return Point2{X: p.X + v.X, Y: p.Y + v.Y}
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point2) DistanceTo(o Point2) float64 {
	return p.Sub(o).Length()
}

// WithZ lifts p to a 3D point at height z.
func (p Point2) WithZ(z float64) Point3 {
	return Point3{X: p.X, Y: p.Y, Z: z}
}

func (p Point2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Point3 is a machine-space position. Z increases upward.
type Point3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// XY drops the Z coordinate.
func (p Point3) XY() Point2 {
	return Point2{X: p.X, Y: p.Y}
}

// Sub returns the vector from o to p.
func (p Point3) Sub(o Point3) Vec3 {
	return Vec3{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// DistanceTo returns the 3D Euclidean distance between two points.
func (p Point3) DistanceTo(o Point3) float64 {
	return p.Sub(o).Length()
}

func (p Point3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// Vec2 is a 2D displacement.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector along v, or the zero vector when v is
// shorter than Epsilon.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < Epsilon {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// PerpCW rotates v by 90 degrees clockwise.
func (v Vec2) PerpCW() Vec2 {
	return Vec2{X: v.Y, Y: -v.X}
}

// PerpCCW rotates v by 90 degrees counter-clockwise.
func (v Vec2) PerpCCW() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Vec3 is a 3D displacement.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector along v, or the zero vector when v is
// shorter than Epsilon.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}
