// Package geom provides the small amount of 3D vector math the combat core needs
// for ranges, engagement distance, and keeping combatants on the terrain.
package geom

import "math"

// Vec3 is a world-space position. Y is up; X and Z span the ground plane.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// LengthXZ returns the length of v projected onto the ground plane.
func (v Vec3) LengthXZ() float64 { return math.Hypot(v.X, v.Z) }

// NormalizedXZ returns the ground-plane unit direction of v with Y zeroed.
//
// Postcondition: returns the zero vector when v has no ground-plane extent.
func (v Vec3) NormalizedXZ() Vec3 {
	l := v.LengthXZ()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Z: v.Z / l}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	d := a.Sub(b)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// DistanceXZ returns the ground-plane distance between a and b, ignoring height.
func DistanceXZ(a, b Vec3) float64 {
	return a.Sub(b).LengthXZ()
}

// DistanceToSegmentXZ returns the ground-plane distance from p to the segment [a, b].
//
// Postcondition: equals DistanceXZ(p, a) when a == b.
func DistanceToSegmentXZ(p, a, b Vec3) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Z*ab.Z
	if lenSq == 0 {
		return DistanceXZ(p, a)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Z*ab.Z) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := Vec3{X: a.X + ab.X*t, Z: a.Z + ab.Z*t}
	return DistanceXZ(Vec3{X: p.X, Z: p.Z}, closest)
}

// Terrain answers ground height queries. The combat core only uses it to keep
// combatants grounded while moving.
type Terrain interface {
	// Height returns the ground height at (x, z).
	Height(x, z float64) float64
}

// TerrainFunc adapts a plain function to the Terrain interface.
type TerrainFunc func(x, z float64) float64

// Height calls f(x, z).
func (f TerrainFunc) Height(x, z float64) float64 { return f(x, z) }

// FlatTerrain is a Terrain with constant height.
type FlatTerrain struct {
	Y float64
}

// Height returns the constant height.
func (t FlatTerrain) Height(_, _ float64) float64 { return t.Y }
