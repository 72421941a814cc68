package command

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/steer"
)

// potentialLineLength is how far the potential line reaches from the agent.
const potentialLineLength = 20.0

// Kind tags which variant a Command carries.
type Kind uint8

const (
	KindMove Kind = iota + 1
	KindFollow
	KindIntercept
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindFollow:
		return "follow"
	case KindIntercept:
		return "intercept"
	default:
		return "unknown"
	}
}

// State is the lifecycle position of a Command.
type State uint8

const (
	StatePending State = iota
	StateActive
	StateDone
	StateStopped
)

// Move drives toward a fixed world position.
type Move struct {
	Target cp.Vector
}

// Follow keeps station at Offset from another agent until that agent is gone.
type Follow struct {
	Target uint64
	Offset cp.Vector
}

// Intercept chases the predicted position of another agent.
type Intercept struct {
	Target uint64
}

// Command is one queued instruction for a single agent. Exactly one of the
// variant pointers is set, matching Kind.
type Command struct {
	Kind      Kind
	Move      *Move
	Follow    *Follow
	Intercept *Intercept

	state State
	lines [2]LineHandle
	last  steer.Result
	aim   cp.Vector
}

func NewMove(target cp.Vector) *Command {
	return &Command{Kind: KindMove, Move: &Move{Target: target}}
}

func NewFollow(target uint64, offset cp.Vector) *Command {
	return &Command{Kind: KindFollow, Follow: &Follow{Target: target, Offset: offset}}
}

func NewIntercept(target uint64) *Command {
	return &Command{Kind: KindIntercept, Intercept: &Intercept{Target: target}}
}

func (c *Command) State() State { return c.state }

// Last is the potential field evaluation from the most recent tick. It is
// zero in bearing mode.
func (c *Command) Last() steer.Result { return c.last }

// Aim is the point the command steered at on the most recent tick.
func (c *Command) Aim() cp.Vector { return c.aim }

// Env is what a command may read during one tick.
type Env struct {
	Self             steer.AgentSample
	MaxSpeed         float64
	Snapshot         *steer.Snapshot
	Field            *steer.Field
	PotentialFields  bool
	ArriveDistanceSq float64
}

func (c *Command) init(env *Env, lines LinePool) {
	if c.state != StatePending {
		return
	}
	c.state = StateActive

	switch c.Kind {
	case KindMove:
		c.lines[0] = acquire(lines, LineMove, env.Self.Position, c.Move.Target)
	case KindFollow:
		c.lines[0] = acquire(lines, LineFollow, env.Self.Position)
	case KindIntercept:
		c.lines[0] = acquire(lines, LineIntercept, env.Self.Position)
	}
	if env.PotentialFields {
		c.lines[1] = acquire(lines, LinePotential, env.Self.Position, env.Self.Position)
	}
}

func (c *Command) done(env *Env) bool {
	switch c.Kind {
	case KindMove:
		return env.Self.Position.DistanceSq(c.Move.Target) < env.ArriveDistanceSq
	case KindFollow:
		_, ok := env.Snapshot.Lookup(c.Follow.Target)
		return !ok
	case KindIntercept:
		target, ok := env.Snapshot.Lookup(c.Intercept.Target)
		return !ok || env.Self.Position.DistanceSq(target.Position) < env.ArriveDistanceSq
	}
	return true
}

func (c *Command) tick(env *Env, lines LinePool) steer.Steering {
	self := env.Self

	switch c.Kind {
	case KindMove:
		c.aim = c.Move.Target
		s := c.steer(env, lines)
		setPoints(lines, c.lines[0], self.Position, c.aim)
		return s

	case KindFollow:
		target, _ := env.Snapshot.Lookup(c.Follow.Target)
		c.aim = target.Position.Add(c.Follow.Offset)
		setPoints(lines, c.lines[0], self.Position, c.aim, target.Position)
		if self.Position.DistanceSq(c.aim) < env.ArriveDistanceSq {
			// On station: match the leader instead of circling the slot.
			c.last = steer.Result{}
			return steer.Steering{Heading: target.Heading, Speed: target.Velocity.Length()}
		}
		return c.steer(env, lines)

	case KindIntercept:
		target, _ := env.Snapshot.Lookup(c.Intercept.Target)
		c.aim = target.Position
		if env.MaxSpeed > 0 {
			eta := self.Position.Distance(target.Position) / env.MaxSpeed
			c.aim = target.Position.Add(target.Velocity.Mult(eta))
		}
		setPoints(lines, c.lines[0], self.Position, c.aim, target.Position)
		return c.steer(env, lines)
	}
	return steer.Steering{}
}

func (c *Command) steer(env *Env, lines LinePool) steer.Steering {
	if !env.PotentialFields || env.Field == nil {
		c.last = steer.Result{}
		return steer.Bearing(env.Self, env.MaxSpeed, c.aim)
	}
	c.last = env.Field.Compute(env.Self, env.MaxSpeed, c.aim, env.Snapshot)
	tip := env.Self.Position.Add(c.last.Sum.Normalize().Mult(potentialLineLength))
	setPoints(lines, c.lines[1], env.Self.Position, tip)
	return c.last.Steering
}

// stop releases everything the command holds and, for a Move, calls halt so
// the agent stops wanting speed. It runs at most once.
func (c *Command) stop(lines LinePool, halt func()) {
	if c.state == StateStopped {
		return
	}
	c.state = StateStopped
	if c.Kind == KindMove && halt != nil {
		halt()
	}
	for i, h := range c.lines {
		if h != NoLine && lines != nil {
			lines.Release(h)
		}
		c.lines[i] = NoLine
	}
}
