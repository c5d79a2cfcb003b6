package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default reflectance of the course surface.
const (
	DefaultDark   uint8 = 5
	DefaultBright uint8 = 200
)

// Course is a dark line drawn on a bright floor, optionally ending on
// a dark pad.
type Course struct {
	Name string `yaml:"name"`
	// LineWidth of the line in mm.
	LineWidth float64 `yaml:"line_width"`
	// Points of the polyline along the line center.
	Points []Pos2D `yaml:"points"`
	// EndPad is a dark area, empty if the course has none.
	EndPad Rect `yaml:"end_pad"`
	// Start is where the bot is placed.
	Start Start `yaml:"start"`
	// Dark and Bright are the sensor readings on and off the line.
	Dark   uint8 `yaml:"dark"`
	Bright uint8 `yaml:"bright"`
}

// Start is the initial pose in a human friendly form.
type Start struct {
	Pos2D `yaml:",inline"`
	// Heading in degrees.
	Heading float64 `yaml:"heading"`
}

// Pose converts Start into Pose2D.
func (s Start) Pose() Pose2D {
	return Pose2D{Pos2D: s.Pos2D, Orientation: AngleFromDegrees(s.Heading)}
}

// StraightCourse creates a straight line along X ending on a pad.
func StraightCourse(length float64) *Course {
	return &Course{
		Name:      "straight",
		LineWidth: 20,
		Points:    []Pos2D{{X: 0, Y: 0}, {X: length, Y: 0}},
		EndPad:    Rect{Pos2D: Pos2D{X: length, Y: -100}, Size2D: Size2D{CX: 150, CY: 200}},
		Start:     Start{Pos2D: Pos2D{X: -60}},
		Dark:      DefaultDark,
		Bright:    DefaultBright,
	}
}

// ParseCourse parses a course in YAML.
func ParseCourse(data []byte) (*Course, error) {
	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse course: %w", err)
	}
	c.ensureDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCourse reads a course file.
func LoadCourse(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course: %w", err)
	}
	return ParseCourse(data)
}

func (c *Course) ensureDefaults() {
	if c.LineWidth == 0 {
		c.LineWidth = 20
	}
	if c.Dark == 0 && c.Bright == 0 {
		c.Dark, c.Bright = DefaultDark, DefaultBright
	}
}

// Validate checks the course is usable.
func (c *Course) Validate() error {
	if len(c.Points) < 2 {
		return fmt.Errorf("course %q: at least 2 points required", c.Name)
	}
	if c.LineWidth < 0 {
		return fmt.Errorf("course %q: negative line width", c.Name)
	}
	return nil
}

// OnLine tells if p is on the line or the end pad.
func (c *Course) OnLine(p Pos2D) bool {
	if !c.EndPad.Empty() && c.EndPad.Contains(p) {
		return true
	}
	for n := 1; n < len(c.Points); n++ {
		if p.DistanceToSegment(c.Points[n-1], c.Points[n]) <= c.LineWidth/2 {
			return true
		}
	}
	return false
}

// OnEndPad tells if p is on the end pad.
func (c *Course) OnEndPad(p Pos2D) bool {
	return !c.EndPad.Empty() && c.EndPad.Contains(p)
}

// Reflectance is the sensor reading at p.
func (c *Course) Reflectance(p Pos2D) uint8 {
	if c.OnLine(p) {
		return c.Dark
	}
	return c.Bright
}
