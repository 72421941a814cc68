package component

import "github.com/milk9111/tugnav/command"

// Commands attaches a command queue to an agent.
type Commands struct {
	Queue *command.Queue
}

var CommandsComponent = NewComponent[Commands]()
