package obj

import (
	"math"

	"github.com/jakecoffman/cp"
)

type ObstacleShape string

const (
	ShapeCircle ObstacleShape = "circle"
	ShapeBox    ObstacleShape = "box"
)

// Obstacle describes one static obstacle. Boxes are centered on (X, Y) and
// rotated by Angle degrees.
type Obstacle struct {
	Shape  ObstacleShape
	X      float64
	Y      float64
	Radius float64
	Width  float64
	Height float64
	Angle  float64
}

// ObstacleSample is the closest point of one obstacle to a probe position.
type ObstacleSample struct {
	Point    cp.Vector
	Distance float64
	// Toward is the unit direction from the probe to the obstacle.
	Toward cp.Vector
}

// ObstacleWorld owns a Chipmunk space holding only static shapes. It is
// built once per environment and only read afterwards.
type ObstacleWorld struct {
	space     *cp.Space
	obstacles []Obstacle
	shapes    map[*cp.Shape]int
}

func NewObstacleWorld() *ObstacleWorld {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	return &ObstacleWorld{
		space:  space,
		shapes: make(map[*cp.Shape]int),
	}
}

// Space returns the underlying Chipmunk space.
func (ow *ObstacleWorld) Space() *cp.Space {
	if ow == nil {
		return nil
	}
	return ow.space
}

// Add inserts an obstacle and returns its index. Degenerate obstacles are
// ignored and return -1.
func (ow *ObstacleWorld) Add(o Obstacle) int {
	if ow == nil || ow.space == nil {
		return -1
	}

	var shape *cp.Shape
	switch o.Shape {
	case ShapeCircle:
		if o.Radius <= 0 {
			return -1
		}
		shape = cp.NewCircle(ow.space.StaticBody, o.Radius, cp.Vector{X: o.X, Y: o.Y})
	case ShapeBox:
		if o.Width <= 0 || o.Height <= 0 {
			return -1
		}
		shape = cp.NewPolyShapeRaw(ow.space.StaticBody, 4, boxVerts(o), 0)
	default:
		return -1
	}

	ow.space.AddShape(shape)
	idx := len(ow.obstacles)
	ow.obstacles = append(ow.obstacles, o)
	ow.shapes[shape] = idx
	return idx
}

func (ow *ObstacleWorld) AddCircle(x, y, radius float64) int {
	return ow.Add(Obstacle{Shape: ShapeCircle, X: x, Y: y, Radius: radius})
}

func (ow *ObstacleWorld) AddBox(x, y, width, height, angle float64) int {
	return ow.Add(Obstacle{Shape: ShapeBox, X: x, Y: y, Width: width, Height: height, Angle: angle})
}

// Clear drops every obstacle and starts over with an empty space.
func (ow *ObstacleWorld) Clear() {
	if ow == nil {
		return
	}
	fresh := NewObstacleWorld()
	*ow = *fresh
}

func (ow *ObstacleWorld) Len() int {
	if ow == nil {
		return 0
	}
	return len(ow.obstacles)
}

// Obstacles returns a copy of the obstacle descriptions.
func (ow *ObstacleWorld) Obstacles() []Obstacle {
	if ow == nil {
		return nil
	}
	return append([]Obstacle(nil), ow.obstacles...)
}

// Occupied reports whether any obstacle overlaps the circle at center.
func (ow *ObstacleWorld) Occupied(center cp.Vector, radius float64) bool {
	if ow == nil || ow.space == nil || len(ow.obstacles) == 0 {
		return false
	}
	info := ow.space.PointQueryNearest(center, radius, cp.SHAPE_FILTER_ALL)
	return info != nil && info.Shape != nil
}

// Nearby appends the closest point of every obstacle within maxDist of p to
// dst. Probes inside an obstacle report a zero distance.
func (ow *ObstacleWorld) Nearby(p cp.Vector, maxDist float64, dst []ObstacleSample) []ObstacleSample {
	if ow == nil || ow.space == nil || len(ow.obstacles) == 0 {
		return dst
	}
	ow.space.BBQuery(cp.NewBBForCircle(p, maxDist), cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		if _, ok := ow.shapes[shape]; !ok {
			return
		}
		info := shape.PointQuery(p)
		if info.Distance > maxDist {
			return
		}
		dst = append(dst, ObstacleSample{
			Point:    info.Point,
			Distance: math.Max(info.Distance, 0),
			Toward:   info.Gradient.Neg(),
		})
	}, nil)
	return dst
}

func boxVerts(o Obstacle) []cp.Vector {
	hw, hh := o.Width/2, o.Height/2
	rad := o.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	corners := [4]cp.Vector{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	verts := make([]cp.Vector, 0, 4)
	for _, c := range corners {
		verts = append(verts, cp.Vector{
			X: o.X + c.X*cos - c.Y*sin,
			Y: o.Y + c.X*sin + c.Y*cos,
		})
	}
	return verts
}
