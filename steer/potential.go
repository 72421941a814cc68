package steer

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/common"
	"github.com/milk9111/tugnav/obj"
)

// minRepulsionDistance keeps d^exp finite when an agent sits on top of
// something it is repelled by.
const minRepulsionDistance = 1e-3

var ErrInvalidConfig = errors.New("steer: invalid potential field config")

// PotentialFieldConfig holds the coefficients of the control law. Values come
// from configuration, never from code.
type PotentialFieldConfig struct {
	AttractionCoefficient float64 `yaml:"attraction_coefficient"`
	AttractiveExponent    float64 `yaml:"attractive_exponent"`
	RepulsiveCoefficient  float64 `yaml:"repulsive_coefficient"`
	RepulsiveExponent     float64 `yaml:"repulsive_exponent"`
	DistanceThreshold     float64 `yaml:"distance_threshold"`
	// MaxRepulsionX and MaxRepulsionY clamp each repulsive term per axis.
	MaxRepulsionX float64 `yaml:"max_repulsion_x"`
	MaxRepulsionY float64 `yaml:"max_repulsion_y"`
}

func (c PotentialFieldConfig) Validate() error {
	switch {
	case c.DistanceThreshold < 0:
		return fmt.Errorf("%w: distance_threshold %v", ErrInvalidConfig, c.DistanceThreshold)
	case c.MaxRepulsionX <= 0 || c.MaxRepulsionY <= 0:
		return fmt.Errorf("%w: max_repulsion (%v, %v) must be positive", ErrInvalidConfig, c.MaxRepulsionX, c.MaxRepulsionY)
	case math.IsNaN(c.AttractionCoefficient) || math.IsNaN(c.RepulsiveCoefficient):
		return fmt.Errorf("%w: NaN coefficient", ErrInvalidConfig)
	}
	return nil
}

// AgentSample is one mobile entity as seen by steering for a single tick.
type AgentSample struct {
	ID       uint64
	Position cp.Vector
	Velocity cp.Vector
	Heading  float64
	Mass     float64
}

// Snapshot is an immutable copy of every agent for one tick. Steering reads
// it; nothing writes to it after it is built.
type Snapshot struct {
	Agents []AgentSample
	byID   map[uint64]int
}

func NewSnapshot(agents []AgentSample) *Snapshot {
	s := &Snapshot{
		Agents: agents,
		byID:   make(map[uint64]int, len(agents)),
	}
	for i, a := range agents {
		s.byID[a.ID] = i
	}
	return s
}

// Lookup finds an agent by id.
func (s *Snapshot) Lookup(id uint64) (AgentSample, bool) {
	if s == nil {
		return AgentSample{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return AgentSample{}, false
	}
	return s.Agents[i], true
}

// ObstacleSampler returns the closest points of static obstacles near p.
type ObstacleSampler interface {
	Nearby(p cp.Vector, maxDist float64, dst []obj.ObstacleSample) []obj.ObstacleSample
}

// Steering is a desired heading (degrees, [0, 360)) and speed.
type Steering struct {
	Heading float64
	Speed   float64
}

// Result carries the intermediate vectors alongside the steering output so
// callers can visualize them.
type Result struct {
	Steering
	Attractive cp.Vector
	Repulsive  cp.Vector
	Sum        cp.Vector
	AngleDiff  float64
}

// Field evaluates the potential field for one agent at a time. The scratch
// buffer makes a Field unsafe for concurrent use.
type Field struct {
	Config    PotentialFieldConfig
	Obstacles ObstacleSampler

	samples []obj.ObstacleSample
}

func NewField(cfg PotentialFieldConfig, obstacles ObstacleSampler) *Field {
	return &Field{Config: cfg, Obstacles: obstacles}
}

// Compute sums the attraction toward waypoint with the repulsion from every
// other agent and obstacle closer than the threshold, and turns the result
// into a desired heading and speed.
func (f *Field) Compute(self AgentSample, maxSpeed float64, waypoint cp.Vector, snap *Snapshot) Result {
	cfg := f.Config

	toGoal := waypoint.Sub(self.Position)
	attractive := cp.Vector{}
	if d := toGoal.Length(); d > 0 {
		attractive = toGoal.Mult(cfg.AttractionCoefficient * math.Pow(d, cfg.AttractiveExponent) / d)
	}

	mass := self.Mass
	if mass <= 0 {
		mass = 1
	}

	repulsive := cp.Vector{}
	if snap != nil {
		for _, other := range snap.Agents {
			if other.ID == self.ID {
				continue
			}
			diff := other.Position.Sub(self.Position)
			d := diff.Length()
			if d >= cfg.DistanceThreshold || d == 0 {
				continue
			}
			repulsive = repulsive.Add(f.repulsion(mass, d, diff.Mult(1/d)))
		}
	}
	if f.Obstacles != nil {
		f.samples = f.Obstacles.Nearby(self.Position, cfg.DistanceThreshold, f.samples[:0])
		for _, o := range f.samples {
			if o.Distance >= cfg.DistanceThreshold {
				continue
			}
			repulsive = repulsive.Add(f.repulsion(mass, o.Distance, o.Toward))
		}
	}

	sum := attractive.Sub(repulsive)
	heading := common.HeadingOf(sum.X, sum.Y)
	diff := common.Degrees360(common.AngleDiffPosNeg(heading, self.Heading))

	return Result{
		Steering: Steering{
			Heading: heading,
			Speed:   SpeedForTurn(maxSpeed, diff),
		},
		Attractive: attractive,
		Repulsive:  repulsive,
		Sum:        sum,
		AngleDiff:  diff,
	}
}

// repulsion is one clamped term pointing from the agent toward the thing
// repelling it; the caller subtracts it.
func (f *Field) repulsion(mass, d float64, toward cp.Vector) cp.Vector {
	cfg := f.Config
	d = math.Max(d, minRepulsionDistance)
	mag := cfg.RepulsiveCoefficient * mass * math.Pow(d, cfg.RepulsiveExponent)
	v := toward.Mult(mag)
	return cp.Vector{
		X: common.Clamp(v.X, -cfg.MaxRepulsionX, cfg.MaxRepulsionX),
		Y: common.Clamp(v.Y, -cfg.MaxRepulsionY, cfg.MaxRepulsionY),
	}
}

// SpeedForTurn scales maxSpeed by how far the agent has to turn: full speed
// when aligned, approaching zero as the turn approaches 180°.
func SpeedForTurn(maxSpeed, angleDiff float64) float64 {
	return maxSpeed * (math.Cos(angleDiff*math.Pi/180) + 1) / 2
}

// Bearing is the plain, field-free control law: head straight for the
// waypoint at full speed.
func Bearing(self AgentSample, maxSpeed float64, waypoint cp.Vector) Steering {
	diff := waypoint.Sub(self.Position)
	return Steering{
		Heading: common.HeadingOf(diff.X, diff.Y),
		Speed:   maxSpeed,
	}
}
