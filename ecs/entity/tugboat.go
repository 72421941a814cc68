package entity

import (
	"fmt"

	"github.com/milk9111/tugnav/command"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
	"github.com/milk9111/tugnav/prefabs"
)

// NewTugboat spawns one tug at (x, y) facing heading with an empty command
// queue that draws through lines.
func NewTugboat(w *ecs.World, spec *prefabs.TugboatSpec, lines command.LinePool, x, y, heading float64) (ecs.Entity, error) {
	if spec == nil {
		return 0, fmt.Errorf("tugboat: nil spec")
	}

	entity := ecs.CreateEntity(w)

	if err := ecs.Add(w, entity, component.TugTagComponent.Kind(), &component.TugTag{}); err != nil {
		return 0, fmt.Errorf("tugboat: add tug tag: %w", err)
	}

	if err := ecs.Add(w, entity, component.TransformComponent.Kind(), &component.Transform{
		X:       x,
		Y:       y,
		Heading: heading,
	}); err != nil {
		return 0, fmt.Errorf("tugboat: add transform: %w", err)
	}

	motion := &component.Motion{
		DesiredHeading: heading,
		MaxSpeed:       spec.MaxSpeed,
		Acceleration:   spec.Acceleration,
		TurnRate:       spec.TurnRate,
		Mass:           spec.Mass,
	}
	if err := ecs.Add(w, entity, component.MotionComponent.Kind(), motion); err != nil {
		return 0, fmt.Errorf("tugboat: add motion: %w", err)
	}

	queue := command.NewQueue(lines)
	queue.OnHalt = func() { motion.DesiredSpeed = 0 }
	if err := ecs.Add(w, entity, component.CommandsComponent.Kind(), &component.Commands{
		Queue: queue,
	}); err != nil {
		return 0, fmt.Errorf("tugboat: add commands: %w", err)
	}

	return entity, nil
}
