package game

import (
	"context"
	"log"

	"github.com/milk9111/tugnav/prefabs"
)

// ReloadConfig queues cfg to be applied at the start of the next Update. It
// may be called from any goroutine; only the newest queued config is kept.
func (s *Session) ReloadConfig(cfg *prefabs.NavConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for {
		select {
		case s.reloads <- *cfg:
			return nil
		default:
		}
		select {
		case <-s.reloads:
		default:
		}
	}
}

func (s *Session) applyReload() {
	var cfg prefabs.NavConfig
	select {
	case cfg = <-s.reloads:
	default:
		return
	}

	if cfg.Planner.CellSize != s.cfg.Planner.CellSize || cfg.Planner.Workers != s.cfg.Planner.Workers {
		log.Printf("game: planner grid settings change on the next Start")
	}
	s.cfg = cfg

	if s.field != nil {
		s.field.Config = cfg.PotentialField
	}
	if s.commands != nil {
		s.commands.ArriveDistanceSq = cfg.Move.ArriveDistanceSq
	}
	if s.pathing != nil {
		s.pathing.Timeout = cfg.Planner.Timeout
	}
	if cfg.Lines.Width > 0 {
		s.lines.Width = cfg.Lines.Width
	}
	log.Printf("game: reloaded nav config")
}

// Watch feeds nav.yaml edits from w into ReloadConfig until ctx is done or
// the watcher closes. Bad edits are logged and skipped.
func (s *Session) Watch(ctx context.Context, w *prefabs.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("game: watch: %v", err)
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if prefabs.SpecName(name) != "nav.yaml" {
				continue
			}
			cfg, err := prefabs.LoadNavConfig()
			if err != nil {
				log.Printf("game: reload %s: %v", name, err)
				continue
			}
			if err := s.ReloadConfig(cfg); err != nil {
				log.Printf("game: reload %s: %v", name, err)
			}
		}
	}
}
