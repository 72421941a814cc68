package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/game"
	"github.com/milk9111/tugnav/pathfind"
	"github.com/milk9111/tugnav/prefabs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	envName := flag.String("env", "circles20", "environment preset ("+strings.Join(prefabs.Environments, ", ")+")")
	modeName := flag.String("mode", "group", "mode: waypoint, follow, group or astar")
	ticks := flag.Int("ticks", 2000, "simulation ticks to run")
	dt := flag.Float64("dt", 1.0/30, "seconds per tick")
	targetFlag := flag.String("target", "400,400", "move target as x,y")
	seed := flag.Int64("seed", 1, "seed for obstacle layout and spawns")
	watch := flag.Bool("watch", false, "hot reload prefabs/nav.yaml while running")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (overrides nav.yaml)")
	plan := flag.Bool("plan", false, "print the A* route from the first tug to the target and exit")
	flag.Parse()

	mode, err := game.ParseMode(*modeName)
	if err != nil {
		log.Fatal(err)
	}
	target, err := parseVector(*targetFlag)
	if err != nil {
		log.Fatalf("navsim: -target: %v", err)
	}

	cfg, err := prefabs.LoadNavConfig()
	if err != nil {
		log.Fatal(err)
	}
	tug, err := prefabs.LoadTugboatSpec()
	if err != nil {
		log.Fatal(err)
	}
	env, err := prefabs.LoadEnvironmentSpec(*envName)
	if err != nil {
		log.Fatal(err)
	}

	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	var metrics *pathfind.Metrics
	if addr != "" {
		reg := prometheus.NewRegistry()
		metrics = pathfind.NewMetrics(reg)
		go func() {
			log.Printf("navsim: metrics on %s/metrics", addr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("navsim: metrics server: %v", err)
			}
		}()
	}

	session, err := game.NewSession(cfg, tug, game.Options{Seed: *seed, Metrics: metrics})
	if err != nil {
		log.Fatal(err)
	}
	if err := session.Start(env, mode); err != nil {
		log.Fatal(err)
	}
	defer session.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *plan {
		code := printPlan(ctx, session, target)
		stop()
		session.Stop()
		os.Exit(code)
	}

	if *watch {
		w, err := prefabs.NewWatcher("prefabs")
		if err != nil {
			log.Fatalf("navsim: watch prefabs: %v", err)
		}
		defer w.Close()
		go session.Watch(ctx, w)
	}

	tugs := session.Tugs()
	for i, e := range tugs {
		var err error
		if mode == game.ModeSingleEntityWaypointFollow && i > 0 {
			// The rest of the group trails the first tug in a line.
			err = session.Follow(e, tugs[0], cp.Vector{X: -15 * float64(i)})
		} else {
			err = session.MoveTo(e, target)
		}
		if err != nil {
			log.Fatalf("navsim: order %v: %v", e, err)
		}
	}

	arrived := make(map[ecs.Entity]bool, len(tugs))
	for tick := 1; tick <= *ticks; tick++ {
		if ctx.Err() != nil {
			log.Printf("navsim: interrupted at tick %d", tick)
			break
		}
		for _, ev := range session.Update(*dt) {
			switch ev.Type {
			case ecs.EventCommandFinished:
				if q, err := session.Queue(ev.Entity); err == nil && q.Len() == 0 {
					arrived[ev.Entity] = true
				}
			case ecs.EventPathReady:
				log.Printf("navsim: tug %v routed with %v waypoints", ev.Entity, ev.Data)
			}
		}
		if tick%300 == 0 {
			log.Printf("navsim: tick %d, %d/%d tugs idle at target", tick, len(arrived), len(tugs))
		}
	}

	for _, e := range tugs {
		pos, _ := session.Position(e)
		log.Printf("navsim: tug %v at (%.1f, %.1f), %.1f from target", e, pos.X, pos.Y, pos.Distance(target))
	}
	log.Printf("navsim: %d/%d tugs finished their orders", len(arrived), len(tugs))
}

func printPlan(ctx context.Context, session *game.Session, target cp.Vector) int {
	tugs := session.Tugs()
	if len(tugs) == 0 {
		log.Printf("navsim: no tugs to plan for")
		return 1
	}
	start, _ := session.Position(tugs[0])
	planner := session.Planner()
	waypoints := planner.FindPath(ctx, pathfind.RequesterID(tugs[0]), start, target, session.Config().Planner.Timeout)
	if len(waypoints) == 0 {
		log.Printf("navsim: no route from (%.1f, %.1f) to (%.1f, %.1f)", start.X, start.Y, target.X, target.Y)
		return 1
	}
	for i, wp := range waypoints {
		fmt.Printf("%d\t%.2f\t%.2f\n", i, wp.X, wp.Y)
	}
	return 0
}

func parseVector(s string) (cp.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return cp.Vector{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return cp.Vector{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return cp.Vector{}, err
	}
	return cp.Vector{X: x, Y: y}, nil
}
