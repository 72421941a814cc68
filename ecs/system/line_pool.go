package system

import (
	"image/color"
	"log"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/command"
	"github.com/milk9111/tugnav/ecs"
	"github.com/milk9111/tugnav/ecs/component"
)

const defaultLineWidth = 1.5

var lineColors = map[command.LineKind]color.Color{
	command.LineMove:      color.RGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff},
	command.LinePotential: color.RGBA{R: 0xf0, G: 0xc0, B: 0x20, A: 0xff},
	command.LineFollow:    color.RGBA{R: 0x30, G: 0xa0, B: 0xe0, A: 0xff},
	command.LineIntercept: color.RGBA{R: 0xc0, G: 0x40, B: 0xd0, A: 0xff},
}

// LinePool lends LineRender entities to commands. Released lines are hidden
// and parked for reuse instead of destroyed.
type LinePool struct {
	w     *ecs.World
	Width float32

	free []ecs.Entity
	live map[command.LineHandle]ecs.Entity
}

// NewLinePool pre-creates size hidden lines.
func NewLinePool(w *ecs.World, size int) *LinePool {
	lp := &LinePool{
		w:     w,
		Width: defaultLineWidth,
		live:  make(map[command.LineHandle]ecs.Entity),
	}
	for i := 0; i < size; i++ {
		if e, ok := lp.create(); ok {
			lp.free = append(lp.free, e)
		}
	}
	return lp
}

func (lp *LinePool) create() (ecs.Entity, bool) {
	e := ecs.CreateEntity(lp.w)
	if err := ecs.Add(lp.w, e, component.LineRenderComponent.Kind(), &component.LineRender{Hidden: true}); err != nil {
		log.Printf("linepool: create line: %v", err)
		return 0, false
	}
	return e, true
}

func (lp *LinePool) Acquire(kind command.LineKind) command.LineHandle {
	var e ecs.Entity
	if n := len(lp.free); n > 0 {
		e = lp.free[n-1]
		lp.free = lp.free[:n-1]
	} else {
		var ok bool
		if e, ok = lp.create(); !ok {
			return command.NoLine
		}
	}

	line, ok := ecs.Get(lp.w, e, component.LineRenderComponent.Kind())
	if !ok {
		log.Printf("linepool: line %v lost its render component", e)
		return command.NoLine
	}
	line.Color = lineColors[kind]
	line.Width = lp.Width
	line.Points = line.Points[:0]
	line.Hidden = false

	h := command.LineHandle(e)
	lp.live[h] = e
	return h
}

func (lp *LinePool) SetPoints(h command.LineHandle, points ...cp.Vector) {
	e, ok := lp.live[h]
	if !ok {
		return
	}
	line, ok := ecs.Get(lp.w, e, component.LineRenderComponent.Kind())
	if !ok {
		return
	}
	line.Points = append(line.Points[:0], points...)
}

func (lp *LinePool) Release(h command.LineHandle) {
	e, ok := lp.live[h]
	if !ok {
		log.Printf("linepool: release of unknown line %d", h)
		return
	}
	delete(lp.live, h)
	if line, ok := ecs.Get(lp.w, e, component.LineRenderComponent.Kind()); ok {
		line.Hidden = true
		line.Points = line.Points[:0]
	}
	lp.free = append(lp.free, e)
}

// ReleaseAll parks every outstanding line.
func (lp *LinePool) ReleaseAll() {
	for h := range lp.live {
		lp.Release(h)
	}
}

// Live is the number of lines currently lent out.
func (lp *LinePool) Live() int { return len(lp.live) }

// Parked is the number of hidden lines waiting for reuse.
func (lp *LinePool) Parked() int { return len(lp.free) }
