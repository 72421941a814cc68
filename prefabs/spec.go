package prefabs

import (
	"errors"
	"fmt"
	"time"

	"github.com/milk9111/tugnav/steer"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// NavConfig is nav.yaml: everything the navigation stack reads at runtime.
type NavConfig struct {
	PotentialField steer.PotentialFieldConfig `yaml:"potential_field"`
	Planner        PlannerSpec                `yaml:"planner"`
	Move           MoveSpec                   `yaml:"move"`
	Lines          LinesSpec                  `yaml:"lines"`
	MetricsAddr    string                     `yaml:"metrics_addr"`
}

type PlannerSpec struct {
	CellSize float64       `yaml:"cell_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Workers  int           `yaml:"workers"`
}

type MoveSpec struct {
	ArriveDistanceSq float64 `yaml:"arrive_distance_sq"`
}

type LinesSpec struct {
	PoolSize int     `yaml:"pool_size"`
	Width    float32 `yaml:"width"`
}

func (c NavConfig) Validate() error {
	if err := c.PotentialField.Validate(); err != nil {
		return err
	}
	switch {
	case c.Planner.CellSize <= 0:
		return fmt.Errorf("%w: planner.cell_size %v", ErrInvalidSpec, c.Planner.CellSize)
	case c.Planner.Timeout < 0:
		return fmt.Errorf("%w: planner.timeout %v", ErrInvalidSpec, c.Planner.Timeout)
	case c.Move.ArriveDistanceSq <= 0:
		return fmt.Errorf("%w: move.arrive_distance_sq %v", ErrInvalidSpec, c.Move.ArriveDistanceSq)
	}
	return nil
}

func LoadNavConfig() (*NavConfig, error) {
	spec, err := LoadSpec[NavConfig]("nav.yaml")
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: nav.yaml: %w", err)
	}
	return &spec, nil
}

// TugboatSpec is tugboat.yaml.
type TugboatSpec struct {
	Name         string  `yaml:"name"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Acceleration float64 `yaml:"acceleration"`
	TurnRate     float64 `yaml:"turn_rate"`
	Mass         float64 `yaml:"mass"`
}

func LoadTugboatSpec() (*TugboatSpec, error) {
	spec, err := LoadSpec[TugboatSpec]("tugboat.yaml")
	if err != nil {
		return nil, err
	}
	if spec.MaxSpeed <= 0 {
		return nil, fmt.Errorf("prefabs: tugboat.yaml: %w: max_speed %v", ErrInvalidSpec, spec.MaxSpeed)
	}
	return &spec, nil
}

// EnvironmentSpec describes one obstacle layout. Obstacles are placed first,
// then Generator and Noise add to them.
type EnvironmentSpec struct {
	Name      string         `yaml:"name"`
	World     WorldSpec      `yaml:"world"`
	StartArea RectSpec       `yaml:"start_area"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Generator *GeneratorSpec `yaml:"generator"`
	Noise     *NoiseSpec     `yaml:"noise"`
}

type WorldSpec struct {
	Width  float64 `yaml:"width"`
	Length float64 `yaml:"length"`
}

type RectSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type ObstacleSpec struct {
	Shape  string  `yaml:"shape"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Angle  float64 `yaml:"angle"`
}

// GeneratorSpec runs a tengo script that returns an `obstacles` array.
type GeneratorSpec struct {
	Script  string  `yaml:"script"`
	Count   int     `yaml:"count"`
	Shape   string  `yaml:"shape"`
	MinSize float64 `yaml:"min_size"`
	MaxSize float64 `yaml:"max_size"`
	Margin  float64 `yaml:"margin"`
}

// NoiseSpec drops a circle at every Step-spaced sample where the perlin
// value exceeds Threshold.
type NoiseSpec struct {
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`
	Threshold float64 `yaml:"threshold"`
	Step      float64 `yaml:"step"`
	Radius    float64 `yaml:"radius"`
}

func (s EnvironmentSpec) Validate() error {
	switch {
	case s.World.Width <= 0 || s.World.Length <= 0:
		return fmt.Errorf("%w: %s: world %vx%v", ErrInvalidSpec, s.Name, s.World.Width, s.World.Length)
	case s.StartArea.Width < 0 || s.StartArea.Height < 0:
		return fmt.Errorf("%w: %s: negative start area", ErrInvalidSpec, s.Name)
	case s.Generator != nil && s.Generator.Script == "":
		return fmt.Errorf("%w: %s: generator without script", ErrInvalidSpec, s.Name)
	case s.Noise != nil && (s.Noise.Step <= 0 || s.Noise.Radius <= 0):
		return fmt.Errorf("%w: %s: noise step and radius must be positive", ErrInvalidSpec, s.Name)
	}
	return nil
}

// Environments lists the built-in presets.
var Environments = []string{
	"empty",
	"circles20",
	"circles30",
	"circles100",
	"rectangles20",
	"rectangles30",
	"rectangles100",
	"astar",
	"noise",
}

func LoadEnvironmentSpec(name string) (*EnvironmentSpec, error) {
	spec, err := LoadSpec[EnvironmentSpec]("env_" + name + ".yaml")
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
