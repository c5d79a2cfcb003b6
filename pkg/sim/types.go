// Package sim simulates a line-following robot on a course.
package sim

import "math"

// Size2D defines the rectangular size in 2D.
type Size2D struct {
	CX float64 `yaml:"cx"`
	CY float64 `yaml:"cy"`
}

// Pos2D defines the position in 2D, in millimeters.
type Pos2D struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Rect defines a rectangle in 2D, Pos2D is the corner with minimum
// coordinates.
type Rect struct {
	Pos2D  `yaml:",inline"`
	Size2D `yaml:",inline"`
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// Sub returns the vector from p1 to p.
func (p Pos2D) Sub(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X - p1.X, Y: p.Y - p1.Y}
}

// Scale multiplies both coordinates.
func (p Pos2D) Scale(f float64) Pos2D {
	return Pos2D{X: p.X * f, Y: p.Y * f}
}

// Dot is the dot product.
func (p Pos2D) Dot(p1 Pos2D) float64 {
	return p.X*p1.X + p.Y*p1.Y
}

// Length is the distance to origin.
func (p Pos2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// DistanceToSegment is the distance from p to the segment a-b.
func (p Pos2D) DistanceToSegment(a, b Pos2D) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(a.Add(ab.Scale(t))).Length()
}

// Contains tells if p is inside r, borders included.
func (r Rect) Contains(p Pos2D) bool {
	return p.X >= r.X && p.X <= r.X+r.CX && p.Y >= r.Y && p.Y <= r.Y+r.CY
}

// Empty tells if r has no area.
func (r Rect) Empty() bool {
	return r.CX <= 0 || r.CY <= 0
}

// Offset returns the position at a distance ahead and to the left
// of the pose.
func (p Pose2D) Offset(ahead, left float64) Pos2D {
	return p.Pos2D.Add(p.Orientation.Project(ahead)).Add(p.Orientation.AddDegrees(90).Project(left))
}
