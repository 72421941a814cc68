package command

import "github.com/jakecoffman/cp"

// LineKind selects the color a pooled line is drawn with.
type LineKind uint8

const (
	LineMove LineKind = iota
	LinePotential
	LineFollow
	LineIntercept
)

func (k LineKind) String() string {
	switch k {
	case LineMove:
		return "move"
	case LinePotential:
		return "potential"
	case LineFollow:
		return "follow"
	case LineIntercept:
		return "intercept"
	default:
		return "unknown"
	}
}

// LineHandle identifies one line borrowed from a LinePool.
type LineHandle uint64

// NoLine is the handle of a line that was never acquired.
const NoLine LineHandle = 0

// LinePool lends out polyline visuals. Every acquired handle must be
// released exactly once.
type LinePool interface {
	Acquire(kind LineKind) LineHandle
	SetPoints(h LineHandle, points ...cp.Vector)
	Release(h LineHandle)
}

func acquire(lines LinePool, kind LineKind, points ...cp.Vector) LineHandle {
	if lines == nil {
		return NoLine
	}
	h := lines.Acquire(kind)
	if h != NoLine && len(points) > 0 {
		lines.SetPoints(h, points...)
	}
	return h
}

func setPoints(lines LinePool, h LineHandle, points ...cp.Vector) {
	if lines == nil || h == NoLine {
		return
	}
	lines.SetPoints(h, points...)
}
