package testing

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Drain runs cmd synchronously and feeds every message it produces back
// into model until no commands remain. Batches are expanded in order.
// Spinner ticks are dropped so that the loop terminates.
func Drain(model tea.Model, cmd tea.Cmd) tea.Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var next tea.Cmd
			model, next = model.Update(msg)
			queue = append(queue, next)
		}
	}
	return model
}

// Send delivers each message in turn, draining the commands after each.
func Send(model tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		model = Drain(model, func() tea.Msg { return msg })
	}
	return model
}
