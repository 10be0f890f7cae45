package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/event"
)

// sender is the part of tea.Program the bus bridge needs.
type sender interface {
	Send(msg tea.Msg)
}

// App wraps the Bubbletea program
type App struct {
	model Model
	bus   *event.Bus
}

// New creates a status view for ctrl, fed by the lifecycle events on bus.
func New(ctrl Controller, bus *event.Bus, title, hint string) *App {
	return &App{model: NewModel(ctrl, title, hint), bus: bus}
}

// Run shows the view until every instance closed, the user leaves it, or
// ctx is canceled. It returns the final model.
func (a *App) Run(ctx context.Context) (Model, error) {
	program := tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	unsubscribe := subscribe(a.bus, program)
	defer unsubscribe()

	final, err := program.Run()
	if m, ok := final.(Model); ok {
		a.model = m
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return a.model, err
}

// subscribe forwards lifecycle events to the program and returns a function
// that removes the subscriptions.
func subscribe(bus *event.Bus, p sender) func() {
	if bus == nil {
		return func() {}
	}
	ids := []string{
		bus.Subscribe(event.TypeInstanceDeleted, func(e event.Event) {
			ev := e.(event.InstanceDeletedEvent)
			p.Send(instanceDeletedMsg{id: ev.InstanceID, live: ev.Live})
		}),
		bus.Subscribe(event.TypeCloseAllStarted, func(e event.Event) {
			p.Send(closeStartedMsg{pending: e.(event.CloseAllStartedEvent).Pending})
		}),
		bus.Subscribe(event.TypeCloseAllFinished, func(e event.Event) {
			ev := e.(event.CloseAllFinishedEvent)
			p.Send(closeFinishedMsg{attempted: ev.Attempted, failed: ev.Failed})
		}),
		bus.Subscribe(event.TypeCoordinatorTerminated, func(e event.Event) {
			p.Send(terminatedMsg{code: e.(event.CoordinatorTerminatedEvent).ExitCode})
		}),
	}
	return func() {
		for _, id := range ids {
			bus.Unsubscribe(id)
		}
	}
}
