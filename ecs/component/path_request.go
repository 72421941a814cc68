package component

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/pathfind"
)

// PathRequest asks PathfindingSystem to route the agent to Target. Setting
// Pending resubmits; an older search for the same agent is superseded.
type PathRequest struct {
	Target  cp.Vector
	Pending bool
	Result  <-chan pathfind.Result

	// Path and Err describe the last search that came back.
	Path []cp.Vector
	Err  error
}

var PathRequestComponent = NewComponent[PathRequest]()
