// Package event provides a pub-sub event bus that lets the coordinator
// announce instance lifecycle changes without knowing who listens.
//
// The coordinator publishes; the CLI subscribes to log progress and the
// status view subscribes to redraw. Neither depends on the other.
//
// # Event Types
//
// Event types follow the pattern "category.action":
//   - instance.created: the tool opened an instance for a source
//   - instance.deleted: the tool reported an instance gone
//   - closeall.started, closeall.finished: one close-all pass
//   - coordinator.terminated: the global live count reached zero
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publishing goroutine, which for tool callbacks is the tool's dispatch
// goroutine. A panicking handler is recovered and logged and does not stop
// delivery to the remaining handlers.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeInstanceDeleted, func(e event.Event) {
//	    deleted := e.(event.InstanceDeletedEvent)
//	    fmt.Printf("%s closed, %d left\n", deleted.InstanceID, deleted.Live)
//	})
package event
