package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/command"
	"github.com/milk9111/tugnav/common"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
	"github.com/milk9111/tugnav/steer"
)

// CommandSystem ticks every command queue against one snapshot of all agents
// and writes the resulting steering into Motion.
type CommandSystem struct {
	Field            *steer.Field
	PotentialFields  bool
	ArriveDistanceSq float64

	agents []steer.AgentSample
}

func NewCommandSystem(field *steer.Field, potentialFields bool, arriveDistanceSq float64) *CommandSystem {
	return &CommandSystem{
		Field:            field,
		PotentialFields:  potentialFields,
		ArriveDistanceSq: arriveDistanceSq,
	}
}

func (cs *CommandSystem) Update(w *ecs.World) {
	if cs == nil || w == nil {
		return
	}

	cs.agents = cs.agents[:0]
	ecs.ForEach3(w, component.TugTagComponent.Kind(), component.TransformComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, _ *component.TugTag, tr *component.Transform, m *component.Motion) {
		cs.agents = append(cs.agents, agentSample(e, tr, m))
	})
	snap := steer.NewSnapshot(cs.agents)

	ecs.ForEach3(w, component.CommandsComponent.Kind(), component.TransformComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, cmds *component.Commands, tr *component.Transform, m *component.Motion) {
		if cmds.Queue == nil {
			return
		}

		self, ok := snap.Lookup(uint64(e))
		if !ok {
			self = agentSample(e, tr, m)
		}
		env := &command.Env{
			Self:             self,
			MaxSpeed:         m.MaxSpeed,
			Snapshot:         snap,
			Field:            cs.Field,
			PotentialFields:  cs.PotentialFields,
			ArriveDistanceSq: cs.ArriveDistanceSq,
		}

		before := cmds.Queue.Active()
		s, active := cmds.Queue.Tick(env)
		if before != nil && before != cmds.Queue.Active() {
			w.Events().Push(ecs.Event{Type: ecs.EventCommandFinished, Entity: e, Data: before.Kind})
		}
		if !active {
			m.DesiredSpeed = 0
			return
		}
		m.DesiredHeading = s.Heading
		m.DesiredSpeed = s.Speed
	})
}

func agentSample(e ecs.Entity, tr *component.Transform, m *component.Motion) steer.AgentSample {
	vx, vy := common.HeadingVector(tr.Heading)
	return steer.AgentSample{
		ID:       uint64(e),
		Position: cp.Vector{X: tr.X, Y: tr.Y},
		Velocity: cp.Vector{X: vx, Y: vy}.Mult(m.Speed),
		Heading:  tr.Heading,
		Mass:     m.Mass,
	}
}
