// Package sim provides an in-memory toolctl.Tool.
//
// The simulated tool keeps its instances in memory, delivers callbacks on a
// dispatch goroutine like a real tool would, and records every create and
// delete request so tests can assert on exactly what was asked of it.
// Failures can be injected per source. The CLI uses it for --backend sim.
package sim

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/toolctl"
)

// Tool is an in-memory toolctl.Tool. It is safe for concurrent use.
type Tool struct {
	mu         sync.Mutex
	dispatcher *toolctl.Dispatcher
	logger     *logging.Logger

	nextID    int
	instances []*Instance
	live      map[string]*Instance

	failCreate map[string]error
	failDelete map[string]error

	createRequests []string
	deleteRequests []string
}

// Instance is a simulated open document.
type Instance struct {
	tool   *Tool
	id     string
	source string

	// Guarded by tool.mu.
	commands []command
	listener toolctl.Action
	deleted  bool
}

type command struct {
	label  string
	action toolctl.Action
	data   any
}

// Compile-time interface checks.
var (
	_ toolctl.Tool     = (*Tool)(nil)
	_ toolctl.Instance = (*Instance)(nil)
)

// New creates a simulated tool. A nil logger discards output.
func New(logger *logging.Logger) *Tool {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Tool{
		dispatcher: toolctl.NewDispatcher(logger),
		logger:     logger,
		live:       make(map[string]*Instance),
		failCreate: make(map[string]error),
		failDelete: make(map[string]error),
	}
}

// FailCreate makes every CreateInstance call for source fail with cause.
func (t *Tool) FailCreate(source string, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failCreate[source] = cause
}

// FailDelete makes Delete fail with cause for instances opened from source,
// until ClearFailures is called.
func (t *Tool) FailDelete(source string, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failDelete[source] = cause
}

// ClearFailures removes all injected failures.
func (t *Tool) ClearFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failCreate = make(map[string]error)
	t.failDelete = make(map[string]error)
}

// CreateInstance opens a simulated instance for source.
func (t *Tool) CreateInstance(source string) (toolctl.Instance, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.createRequests = append(t.createRequests, source)

	if cause, ok := t.failCreate[source]; ok {
		return nil, errors.NewCreationError("simulated creation failure", cause).WithSource(source)
	}

	t.nextID++
	inst := &Instance{
		tool:   t,
		id:     fmt.Sprintf("sim-%d", t.nextID),
		source: source,
	}
	t.instances = append(t.instances, inst)
	t.live[inst.id] = inst

	t.logger.Debug("sim instance created", "instance_id", inst.id, "source", source)
	return inst, nil
}

// LiveInstanceCount returns the number of instances not yet removed.
func (t *Tool) LiveInstanceCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Close stops the dispatch goroutine after delivering queued callbacks.
func (t *Tool) Close() error {
	t.dispatcher.Close()
	return nil
}

// Sync waits until every callback queued so far has been delivered.
// It must not be called from inside a callback.
func (t *Tool) Sync() {
	t.dispatcher.Flush()
}

// Instances returns every instance ever created, in creation order.
func (t *Tool) Instances() []*Instance {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Instance, len(t.instances))
	copy(out, t.instances)
	return out
}

// Instance returns the instance with the given ID, or nil.
func (t *Tool) Instance(id string) *Instance {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, inst := range t.instances {
		if inst.id == id {
			return inst
		}
	}
	return nil
}

// CreateRequests returns the sources passed to CreateInstance, in order.
func (t *Tool) CreateRequests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.createRequests...)
}

// DeleteRequests returns the IDs passed to Delete, in order, including
// calls on instances that were already deleted.
func (t *Tool) DeleteRequests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.deleteRequests...)
}

// Fire simulates the user picking the command labelled label in instance id.
// The action runs on the dispatch goroutine.
func (t *Tool) Fire(id, label string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.live[id]
	if !ok || inst.deleted {
		return errors.NewNotFoundError("instance", id).WithCause(errors.ErrInstanceDeleted)
	}
	for _, cmd := range inst.commands {
		if cmd.label == label {
			t.dispatcher.Post(func() { cmd.action.Run(cmd.data) })
			return nil
		}
	}
	return errors.NewNotFoundError("command", label)
}

// CloseExternally simulates the user closing instance id from inside the
// tool. It bypasses injected delete failures.
func (t *Tool) CloseExternally(id string) error {
	t.mu.Lock()
	inst, ok := t.live[id]
	if !ok || inst.deleted {
		t.mu.Unlock()
		return errors.NewNotFoundError("instance", id).WithCause(errors.ErrInstanceDeleted)
	}
	t.markDeletedLocked(inst)
	t.mu.Unlock()
	return nil
}

// markDeletedLocked accepts the deletion of inst and queues its removal.
// The instance leaves the live set on the dispatch goroutine, right before
// its listener runs, so each listener sees the count with exactly its own
// instance gone. The caller must hold t.mu.
func (t *Tool) markDeletedLocked(inst *Instance) {
	inst.deleted = true
	if !t.dispatcher.Post(func() { t.remove(inst) }) {
		delete(t.live, inst.id)
	}
}

func (t *Tool) remove(inst *Instance) {
	t.mu.Lock()
	delete(t.live, inst.id)
	live := len(t.live)
	listener := inst.listener
	t.mu.Unlock()

	t.logger.Debug("sim instance deleted", "instance_id", inst.id, "live", live)
	if listener != nil {
		listener.Run(inst)
	}
}

// ID implements toolctl.Instance.
func (i *Instance) ID() string { return i.id }

// Source implements toolctl.Instance.
func (i *Instance) Source() string { return i.source }

// AddCommand implements toolctl.Instance.
func (i *Instance) AddCommand(label string, action toolctl.Action, data any) error {
	if action == nil {
		return errors.NewValidationError("action must not be nil").WithField("action")
	}

	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()

	if i.deleted {
		return errors.Wrapf(errors.ErrInstanceDeleted, "adding command %q to %s", label, i.id)
	}
	i.commands = append(i.commands, command{label: label, action: action, data: data})
	return nil
}

// SetDeletionListener implements toolctl.Instance.
func (i *Instance) SetDeletionListener(action toolctl.Action) error {
	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()

	if i.deleted {
		return errors.Wrapf(errors.ErrInstanceDeleted, "setting deletion listener on %s", i.id)
	}
	i.listener = action
	return nil
}

// Delete implements toolctl.Instance.
func (i *Instance) Delete() error {
	t := i.tool
	t.mu.Lock()
	defer t.mu.Unlock()

	t.deleteRequests = append(t.deleteRequests, i.id)

	if i.deleted {
		return nil
	}
	if cause, ok := t.failDelete[i.source]; ok {
		return errors.NewDeletionError("simulated deletion failure", cause).WithInstanceID(i.id)
	}

	t.markDeletedLocked(i)
	return nil
}

// LiveInstanceCount implements toolctl.Instance.
func (i *Instance) LiveInstanceCount() int {
	return i.tool.LiveInstanceCount()
}

// Commands returns the labels of the commands attached to the instance.
func (i *Instance) Commands() []string {
	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()

	labels := make([]string, len(i.commands))
	for n, cmd := range i.commands {
		labels[n] = cmd.label
	}
	return labels
}

// HasDeletionListener reports whether a deletion listener is set.
func (i *Instance) HasDeletionListener() bool {
	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()
	return i.listener != nil
}

// Deleted reports whether the instance has been deleted.
func (i *Instance) Deleted() bool {
	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()
	return i.deleted
}
