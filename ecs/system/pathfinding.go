package system

import (
	"errors"
	"log"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/command"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
	"github.com/milk9111/tugnav/pathfind"
)

// PathfindingSystem hands path requests to the async planner and turns the
// answers into move commands. It never blocks the tick.
type PathfindingSystem struct {
	Planner *pathfind.AsyncPlanner
	Timeout time.Duration
}

func NewPathfindingSystem(planner *pathfind.AsyncPlanner, timeout time.Duration) *PathfindingSystem {
	return &PathfindingSystem{Planner: planner, Timeout: timeout}
}

func (ps *PathfindingSystem) Update(w *ecs.World) {
	if ps == nil || ps.Planner == nil || w == nil {
		return
	}

	ecs.ForEach3(w, component.PathRequestComponent.Kind(), component.TransformComponent.Kind(), component.CommandsComponent.Kind(), func(e ecs.Entity, req *component.PathRequest, tr *component.Transform, cmds *component.Commands) {
		if req.Pending {
			start := cp.Vector{X: tr.X, Y: tr.Y}
			req.Result = ps.Planner.Submit(pathfind.RequesterID(e), start, req.Target, ps.Timeout)
			req.Pending = false
			return
		}
		if req.Result == nil {
			return
		}

		var res pathfind.Result
		select {
		case res = <-req.Result:
		default:
			return
		}
		req.Result = nil
		req.Path = res.Waypoints
		req.Err = res.Err

		switch {
		case errors.Is(res.Err, pathfind.ErrSuperseded), errors.Is(res.Err, pathfind.ErrClosed):
			return
		case res.Found():
			moves := make([]*command.Command, 0, len(res.Waypoints))
			for _, wp := range res.Waypoints {
				moves = append(moves, command.NewMove(wp))
			}
			if cmds.Queue != nil {
				cmds.Queue.Set(moves...)
			}
			w.Events().Push(ecs.Event{Type: ecs.EventPathReady, Entity: e, Data: len(moves)})
		case res.Err == nil:
			// Already standing in the target cell.
		default:
			log.Printf("pathfinding: entity %v: no route to (%.1f, %.1f): %v", e, req.Target.X, req.Target.Y, res.Err)
			if cmds.Queue != nil {
				cmds.Queue.Clear()
			}
			w.Events().Push(ecs.Event{Type: ecs.EventPathFailed, Entity: e, Data: res.Err})
		}
	})
}
