package system

import (
	"math"

	"github.com/milk9111/tugnav/common"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
)

// MotionSystem turns desired heading and speed into movement: it turns at
// TurnRate, accelerates at Acceleration and advances the transform. There is
// no collision response.
type MotionSystem struct{}

func NewMotionSystem() *MotionSystem {
	return &MotionSystem{}
}

func (ms *MotionSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	if dt <= 0 {
		return
	}

	ecs.ForEach2(w, component.TransformComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, tr *component.Transform, m *component.Motion) {
		desired := common.Clamp(m.DesiredSpeed, 0, m.MaxSpeed)
		m.Speed = approach(m.Speed, desired, m.Acceleration*dt)

		turn := common.AngleDiffPosNeg(m.DesiredHeading, tr.Heading)
		if m.TurnRate > 0 {
			step := m.TurnRate * dt
			turn = common.Clamp(turn, -step, step)
		}
		tr.Heading = common.Degrees360(tr.Heading + turn)

		vx, vy := common.HeadingVector(tr.Heading)
		tr.X += vx * m.Speed * dt
		tr.Y += vy * m.Speed * dt
	})
}

// approach moves v toward target by at most step. A non-positive step snaps.
func approach(v, target, step float64) float64 {
	if step <= 0 {
		return target
	}
	if math.Abs(target-v) <= step {
		return target
	}
	if target > v {
		return v + step
	}
	return v - step
}
