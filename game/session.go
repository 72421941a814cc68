package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/command"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
	"github.com/milk9111/tugnav/ecs/entity"
	"github.com/milk9111/tugnav/ecs/system"
	"github.com/milk9111/tugnav/obj"
	"github.com/milk9111/tugnav/pathfind"
	"github.com/milk9111/tugnav/prefabs"
	"github.com/milk9111/tugnav/steer"
)

var (
	ErrNotRunning  = errors.New("game: session not running")
	ErrUnknownTug  = errors.New("game: unknown tug")
	ErrSelfTarget  = errors.New("game: tug cannot target itself")
	ErrInvalidMode = errors.New("game: invalid mode")
)

type Options struct {
	Seed    int64
	Metrics *pathfind.Metrics
}

// Session runs one environment with one mode. Everything except
// ReloadConfig must be called from the goroutine driving Update.
type Session struct {
	cfg  prefabs.NavConfig
	tug  prefabs.TugboatSpec
	opts Options

	world *ecs.World
	lines *system.LinePool

	env       *prefabs.EnvironmentSpec
	mode      Mode
	running   bool
	obstacles *obj.ObstacleWorld
	grid      *pathfind.Grid
	planner   *pathfind.AsyncPlanner
	field     *steer.Field
	commands  *system.CommandSystem
	pathing   *system.PathfindingSystem
	scheduler *ecs.Scheduler
	tugs      []ecs.Entity

	reloads chan prefabs.NavConfig
}

func NewSession(cfg *prefabs.NavConfig, tug *prefabs.TugboatSpec, opts Options) (*Session, error) {
	if cfg == nil || tug == nil {
		return nil, fmt.Errorf("game: new session: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game: new session: %w", err)
	}
	world := ecs.NewWorld()
	lines := system.NewLinePool(world, cfg.Lines.PoolSize)
	if cfg.Lines.Width > 0 {
		lines.Width = cfg.Lines.Width
	}
	return &Session{
		cfg:     *cfg,
		tug:     *tug,
		opts:    opts,
		world:   world,
		lines:   lines,
		reloads: make(chan prefabs.NavConfig, 1),
	}, nil
}

// Start builds env and spawns the mode's tugs. A running session is stopped
// first.
func (s *Session) Start(env *prefabs.EnvironmentSpec, mode Mode) error {
	if env == nil {
		return fmt.Errorf("game: start: nil environment")
	}
	if mode.TugCount() == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	s.Stop()

	obstacles := obj.NewObstacleWorld()
	if _, err := env.Populate(obstacles, s.opts.Seed); err != nil {
		return fmt.Errorf("game: start %s: %w", env.Name, err)
	}
	grid, err := pathfind.NewGrid(env.World.Width, env.World.Length, s.cfg.Planner.CellSize, obstacles)
	if err != nil {
		return fmt.Errorf("game: start %s: build grid: %w", env.Name, err)
	}

	s.env = env
	s.mode = mode
	s.obstacles = obstacles
	s.grid = grid
	s.planner = pathfind.NewAsyncPlanner(grid, pathfind.AsyncOptions{
		Workers: s.cfg.Planner.Workers,
		Timeout: s.cfg.Planner.Timeout,
		Metrics: s.opts.Metrics,
	})
	s.field = steer.NewField(s.cfg.PotentialField, obstacles)
	s.commands = system.NewCommandSystem(s.field, mode.PotentialFields(), s.cfg.Move.ArriveDistanceSq)
	s.pathing = system.NewPathfindingSystem(s.planner, s.cfg.Planner.Timeout)
	s.scheduler = ecs.NewScheduler(s.pathing, s.commands, system.NewMotionSystem())

	rng := rand.New(rand.NewSource(s.opts.Seed))
	area := env.StartArea
	for i := 0; i < mode.TugCount(); i++ {
		x := area.X + rng.Float64()*area.Width
		y := area.Y + rng.Float64()*area.Height
		heading := rng.Float64() * 360
		e, err := entity.NewTugboat(s.world, &s.tug, s.lines, x, y, heading)
		if err != nil {
			s.running = true
			s.Stop()
			return fmt.Errorf("game: start %s: %w", env.Name, err)
		}
		s.tugs = append(s.tugs, e)
	}

	s.running = true
	log.Printf("game: started %s in %v mode with %d tugs, %d obstacles, %dx%d grid (%d walkable)",
		env.Name, mode, len(s.tugs), obstacles.Len(), grid.SizeX(), grid.SizeY(), grid.WalkableCount())
	return nil
}

// Stop cancels in-flight searches, stops every command and removes the tugs.
// It is safe to call on a stopped session.
func (s *Session) Stop() {
	if !s.running {
		return
	}
	s.running = false

	// The planner must be drained before anything it reads is torn down.
	s.planner.Close()

	for _, e := range s.tugs {
		if cmds, ok := ecs.Get(s.world, e, component.CommandsComponent.Kind()); ok && cmds.Queue != nil {
			cmds.Queue.Clear()
		}
		ecs.DestroyEntity(s.world, e)
	}
	s.lines.ReleaseAll()
	s.tugs = nil
	s.obstacles.Clear()

	s.planner = nil
	s.grid = nil
	s.field = nil
	s.scheduler = nil
	log.Printf("game: stopped %s", s.env.Name)
}

func (s *Session) Running() bool { return s.running }

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) World() *ecs.World { return s.world }

func (s *Session) Lines() *system.LinePool { return s.lines }

func (s *Session) Obstacles() *obj.ObstacleWorld { return s.obstacles }

func (s *Session) Grid() *pathfind.Grid { return s.grid }

func (s *Session) Planner() *pathfind.AsyncPlanner { return s.planner }

func (s *Session) Config() prefabs.NavConfig { return s.cfg }

// Tugs returns the spawned tugs in spawn order.
func (s *Session) Tugs() []ecs.Entity {
	return append([]ecs.Entity(nil), s.tugs...)
}

// Position returns where a tug currently is.
func (s *Session) Position(e ecs.Entity) (cp.Vector, bool) {
	tr, ok := ecs.Get(s.world, e, component.TransformComponent.Kind())
	if !ok {
		return cp.Vector{}, false
	}
	return cp.Vector{X: tr.X, Y: tr.Y}, true
}

// Queue returns a tug's command queue.
func (s *Session) Queue(e ecs.Entity) (*command.Queue, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	if !ecs.Has(s.world, e, component.TugTagComponent.Kind()) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTug, e)
	}
	cmds, ok := ecs.Get(s.world, e, component.CommandsComponent.Kind())
	if !ok || cmds.Queue == nil {
		return nil, fmt.Errorf("%w: %v has no command queue", ErrUnknownTug, e)
	}
	return cmds.Queue, nil
}

// MoveTo replaces e's orders with a trip to target. In A* mode the trip is
// planned off-tick and the moves arrive on a later Update.
func (s *Session) MoveTo(e ecs.Entity, target cp.Vector) error {
	q, err := s.Queue(e)
	if err != nil {
		return err
	}
	if !s.mode.UsesAStar() {
		q.Set(command.NewMove(target))
		return nil
	}

	req, ok := ecs.Get(s.world, e, component.PathRequestComponent.Kind())
	if !ok {
		req = &component.PathRequest{}
		if err := ecs.Add(s.world, e, component.PathRequestComponent.Kind(), req); err != nil {
			return fmt.Errorf("game: move %v: %w", e, err)
		}
	}
	req.Target = target
	req.Pending = true
	req.Result = nil
	return nil
}

// AddWaypoint appends a move behind e's current orders.
func (s *Session) AddWaypoint(e ecs.Entity, p cp.Vector) error {
	q, err := s.Queue(e)
	if err != nil {
		return err
	}
	q.Add(command.NewMove(p))
	return nil
}

// Follow makes e keep station at offset from target.
func (s *Session) Follow(e, target ecs.Entity, offset cp.Vector) error {
	q, err := s.orderAgainst(e, target)
	if err != nil {
		return err
	}
	q.Set(command.NewFollow(uint64(target), offset))
	return nil
}

// Intercept sends e after target.
func (s *Session) Intercept(e, target ecs.Entity) error {
	q, err := s.orderAgainst(e, target)
	if err != nil {
		return err
	}
	q.Set(command.NewIntercept(uint64(target)))
	return nil
}

func (s *Session) orderAgainst(e, target ecs.Entity) (*command.Queue, error) {
	if e == target {
		return nil, ErrSelfTarget
	}
	q, err := s.Queue(e)
	if err != nil {
		return nil, err
	}
	if !ecs.Has(s.world, target, component.TugTagComponent.Kind()) {
		return nil, fmt.Errorf("%w: target %v", ErrUnknownTug, target)
	}
	s.dropPathRequest(e)
	return q, nil
}

// dropPathRequest abandons a planned trip so its answer cannot overwrite
// newer orders.
func (s *Session) dropPathRequest(e ecs.Entity) {
	if ecs.Remove(s.world, e, component.PathRequestComponent.Kind()) {
		s.planner.Cancel(pathfind.RequesterID(e))
	}
}

// Update applies any pending config reload and advances the simulation by
// dt seconds. It returns the events raised during the tick.
func (s *Session) Update(dt float64) []ecs.Event {
	if !s.running {
		return nil
	}
	s.applyReload()
	s.scheduler.Update(s.world, dt)
	return s.world.Events().Drain()
}
