package prefabs

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/tugnav/obj"
)

// Build expands the spec into concrete obstacles. The same seed always
// yields the same layout.
func (s *EnvironmentSpec) Build(seed int64) ([]obj.Obstacle, error) {
	out := make([]obj.Obstacle, 0, len(s.Obstacles))
	for i, o := range s.Obstacles {
		ob, err := o.obstacle()
		if err != nil {
			return nil, fmt.Errorf("prefabs: %s: obstacle %d: %w", s.Name, i, err)
		}
		out = append(out, ob)
	}

	if s.Generator != nil {
		generated, err := s.generate(seed)
		if err != nil {
			return nil, fmt.Errorf("prefabs: %s: generator %s: %w", s.Name, s.Generator.Script, err)
		}
		out = append(out, generated...)
	}

	if s.Noise != nil {
		out = append(out, s.noise(seed)...)
	}
	return out, nil
}

// Populate builds the layout into ow and returns how many obstacles it holds.
func (s *EnvironmentSpec) Populate(ow *obj.ObstacleWorld, seed int64) (int, error) {
	obstacles, err := s.Build(seed)
	if err != nil {
		return 0, err
	}
	for _, o := range obstacles {
		ow.Add(o)
	}
	return ow.Len(), nil
}

func (o ObstacleSpec) obstacle() (obj.Obstacle, error) {
	ob := obj.Obstacle{
		Shape:  obj.ObstacleShape(o.Shape),
		X:      o.X,
		Y:      o.Y,
		Radius: o.Radius,
		Width:  o.Width,
		Height: o.Height,
		Angle:  o.Angle,
	}
	switch ob.Shape {
	case obj.ShapeCircle:
		if ob.Radius <= 0 {
			return ob, fmt.Errorf("%w: circle radius %v", ErrInvalidSpec, ob.Radius)
		}
	case obj.ShapeBox:
		if ob.Width <= 0 || ob.Height <= 0 {
			return ob, fmt.Errorf("%w: box size %vx%v", ErrInvalidSpec, ob.Width, ob.Height)
		}
	default:
		return ob, fmt.Errorf("%w: shape %q", ErrInvalidSpec, o.Shape)
	}
	return ob, nil
}

func (s *EnvironmentSpec) generate(seed int64) ([]obj.Obstacle, error) {
	gen := s.Generator
	src, err := LoadScript(gen.Script)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	inputs := map[string]any{
		"seed":         seed,
		"count":        gen.Count,
		"shape":        gen.Shape,
		"min_size":     gen.MinSize,
		"max_size":     gen.MaxSize,
		"margin":       gen.Margin,
		"world_width":  s.World.Width,
		"world_length": s.World.Length,
		"start_x":      s.StartArea.X,
		"start_y":      s.StartArea.Y,
		"start_w":      s.StartArea.Width,
		"start_h":      s.StartArea.Height,
	}
	for name, v := range inputs {
		if err := script.Add(name, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	if err := compiled.Run(); err != nil {
		return nil, err
	}
	if !compiled.IsDefined("obstacles") {
		return nil, fmt.Errorf("%w: script defines no obstacles", ErrInvalidSpec)
	}

	raw := compiled.Get("obstacles").Array()
	out := make([]obj.Obstacle, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: obstacles[%d] is %T", ErrInvalidSpec, i, item)
		}
		ob, err := ObstacleSpec{
			Shape:  stringField(m, "shape"),
			X:      floatField(m, "x"),
			Y:      floatField(m, "y"),
			Radius: floatField(m, "radius"),
			Width:  floatField(m, "width"),
			Height: floatField(m, "height"),
			Angle:  floatField(m, "angle"),
		}.obstacle()
		if err != nil {
			return nil, fmt.Errorf("obstacles[%d]: %w", i, err)
		}
		out = append(out, ob)
	}
	return out, nil
}

func (s *EnvironmentSpec) noise(seed int64) []obj.Obstacle {
	n := s.Noise
	octaves := n.Octaves
	if octaves <= 0 {
		octaves = 3
	}
	scale := n.Scale
	if scale <= 0 {
		scale = 0.01
	}
	p := perlin.NewPerlin(n.Alpha, n.Beta, octaves, seed)

	var out []obj.Obstacle
	for y := n.Step / 2; y < s.World.Length; y += n.Step {
		for x := n.Step / 2; x < s.World.Width; x += n.Step {
			// Noise2D is in [-1, 1]; thresholds are written against [0, 1].
			v := (p.Noise2D(x*scale, y*scale) + 1) / 2
			if v <= n.Threshold || s.inStartArea(x, y, n.Radius) {
				continue
			}
			out = append(out, obj.Obstacle{Shape: obj.ShapeCircle, X: x, Y: y, Radius: n.Radius})
		}
	}
	return out
}

func (s *EnvironmentSpec) inStartArea(x, y, reach float64) bool {
	a := s.StartArea
	if a.Width == 0 || a.Height == 0 {
		return false
	}
	return x+reach > a.X && x-reach < a.X+a.Width && y+reach > a.Y && y-reach < a.Y+a.Height
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
