package command

import "github.com/milk9111/tugnav/steer"

// Queue is the FIFO of commands for one agent. Only the head is active.
type Queue struct {
	// OnHalt is called when a Move stops, finished or cleared.
	OnHalt func()

	lines    LinePool
	commands []*Command
}

func NewQueue(lines LinePool) *Queue {
	return &Queue{lines: lines}
}

// Add appends a command behind whatever is already queued.
func (q *Queue) Add(c *Command) {
	if c == nil {
		return
	}
	q.commands = append(q.commands, c)
}

// Set replaces the whole queue with cmds.
func (q *Queue) Set(cmds ...*Command) {
	q.Clear()
	for _, c := range cmds {
		q.Add(c)
	}
}

// Clear stops every queued command, the active one included.
func (q *Queue) Clear() {
	for i, c := range q.commands {
		c.stop(q.lines, q.OnHalt)
		q.commands[i] = nil
	}
	q.commands = q.commands[:0]
}

func (q *Queue) Len() int { return len(q.commands) }

// Active returns the head of the queue, or nil when idle.
func (q *Queue) Active() *Command {
	if len(q.commands) == 0 {
		return nil
	}
	return q.commands[0]
}

// Commands returns a copy of the queued commands in order.
func (q *Queue) Commands() []*Command {
	return append([]*Command(nil), q.commands...)
}

// Tick advances the head command. A finished head is stopped and the next
// command is started within the same tick. It reports false once the queue
// is empty.
func (q *Queue) Tick(env *Env) (steer.Steering, bool) {
	for len(q.commands) > 0 {
		c := q.commands[0]
		c.init(env, q.lines)
		if c.done(env) {
			c.state = StateDone
			c.stop(q.lines, q.OnHalt)
			q.commands[0] = nil
			q.commands = q.commands[1:]
			continue
		}
		return c.tick(env, q.lines), true
	}
	return steer.Steering{}, false
}
