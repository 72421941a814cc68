package component

// Transform is an agent's world position. Heading is in degrees, 0 along +Y
// and 90 along +X.
type Transform struct {
	X       float64
	Y       float64
	Heading float64
}

var TransformComponent = NewComponent[Transform]()
