package component

// Motion holds what steering asked for and what the agent is actually doing.
// Steering writes the Desired fields; MotionSystem owns the rest.
type Motion struct {
	Speed          float64
	DesiredSpeed   float64
	DesiredHeading float64

	MaxSpeed     float64
	Acceleration float64
	// TurnRate is in degrees per second.
	TurnRate float64
	Mass     float64
}

var MotionComponent = NewComponent[Motion]()
