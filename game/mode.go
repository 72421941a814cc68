package game

import (
	"fmt"
	"strings"
)

// Mode selects how many tugs spawn and how they steer.
type Mode int

const (
	ModeWaypointGeneration Mode = iota
	ModeSingleEntityWaypointFollow
	ModeGroupMovementPotentialField
	ModeAStarPotentialField
)

var modeNames = map[Mode]string{
	ModeWaypointGeneration:          "waypoint",
	ModeSingleEntityWaypointFollow:  "follow",
	ModeGroupMovementPotentialField: "group",
	ModeAStarPotentialField:         "astar",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the names printed by String.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("game: unknown mode %q", s)
}

// TugCount is how many tugs Start spawns.
func (m Mode) TugCount() int {
	switch m {
	case ModeWaypointGeneration:
		return 1
	case ModeSingleEntityWaypointFollow:
		return 5
	case ModeGroupMovementPotentialField, ModeAStarPotentialField:
		return 10
	}
	return 0
}

func (m Mode) PotentialFields() bool {
	return m == ModeGroupMovementPotentialField || m == ModeAStarPotentialField
}

// UsesAStar reports whether MoveTo routes through the planner.
func (m Mode) UsesAStar() bool {
	return m == ModeAStarPotentialField
}
