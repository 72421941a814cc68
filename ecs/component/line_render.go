package component

import (
	"image/color"

	"github.com/jakecoffman/cp"
)

// LineRender is a world-space polyline owned by the line pool. Hidden lines
// are parked in the pool for reuse.
type LineRender struct {
	Points []cp.Vector
	Width  float32
	Color  color.Color
	Hidden bool
}

var LineRenderComponent = NewComponent[LineRender]()
