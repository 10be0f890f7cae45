package coordinator

import (
	"sync"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/event"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/toolctl"
)

// DefaultCommandLabel is the menu label of the shared close command.
const DefaultCommandLabel = "Close all"

// ExitSuccess is the exit code signaled once every instance is gone.
const ExitSuccess = 0

// ExitPending is what ExitCode returns while instances are still live.
const ExitPending = -1

// PreCloseHook runs before a close-all pass issues its deletions.
// A returned error is logged and the close continues.
type PreCloseHook func(instances []toolctl.Instance) error

// Options configure a Coordinator.
type Options struct {
	// CommandLabel is the label of the close command attached to every
	// instance. Defaults to DefaultCommandLabel.
	CommandLabel string

	// PreClose, if set, runs at the start of every close-all pass that has
	// at least one instance to delete.
	PreClose PreCloseHook

	// OnTerminate, if set, is called exactly once with the exit code when the
	// process-wide live count reaches zero. It runs on the tool's dispatch
	// goroutine and must not block.
	OnTerminate func(code int)

	// Logger receives coordinator logs. Defaults to a no-op logger.
	Logger *logging.Logger

	// Bus, if set, receives lifecycle events.
	Bus *event.Bus
}

// Status is a point-in-time view of one tracked instance.
type Status struct {
	ID      string
	Source  string
	Deleted bool
}

// tracked is the coordinator's record of one instance it created.
type tracked struct {
	inst    toolctl.Instance
	deleted bool
}

// Coordinator owns a fixed set of tool instances, a close command shared by
// all of them, and the shutdown condition.
type Coordinator struct {
	tool   toolctl.Tool
	opts   Options
	logger *logging.Logger

	mu         sync.Mutex
	instances  []*tracked
	byID       map[string]*tracked
	terminated bool
	closing    bool
	done       chan struct{}
}

// Initialize opens one instance per source, in order, then attaches the close
// command and the deletion listener to each of them.
//
// If any creation fails, Initialize stops and returns an
// *errors.InitializationError. The returned Coordinator is non-nil in that
// case and holds the instances created so far, with no command or listener
// attached; call Abandon to delete them, or drop it to leave them open.
// A registration failure is reported the same way, after all instances were
// created.
func Initialize(tool toolctl.Tool, sources []string, opts Options) (*Coordinator, error) {
	if opts.CommandLabel == "" {
		opts.CommandLabel = DefaultCommandLabel
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	c := &Coordinator{
		tool:   tool,
		opts:   opts,
		logger: opts.Logger,
		byID:   make(map[string]*tracked),
		done:   make(chan struct{}),
	}

	if len(sources) == 0 {
		return c, errors.NewInitializationError("no document sources given",
			errors.NewValidationError("at least one source is required").WithField("sources"))
	}

	for i, source := range sources {
		inst, err := tool.CreateInstance(source)
		if err != nil {
			c.logger.Error("instance creation failed",
				"source", source,
				"index", i,
				"created", len(c.instances),
				"error", err.Error())
			return c, errors.NewInitializationError("could not open instance", err).
				WithSource(source, i).
				WithCreated(c.instanceIDs())
		}

		t := &tracked{inst: inst}
		c.instances = append(c.instances, t)
		c.byID[inst.ID()] = t

		c.logger.WithInstance(inst.ID()).Info("instance created", "source", source, "index", i)
		c.publish(event.NewInstanceCreatedEvent(inst.ID(), source, i))
	}

	closeAll := toolctl.ActionFunc(func(any) { _ = c.CloseAll() })
	onDeleted := toolctl.ActionFunc(c.onDeletedAction)

	for i, t := range c.instances {
		if err := t.inst.AddCommand(c.opts.CommandLabel, closeAll, nil); err != nil {
			return c, c.registrationError(t.inst, i, "could not attach close command", err)
		}
		if err := t.inst.SetDeletionListener(onDeleted); err != nil {
			return c, c.registrationError(t.inst, i, "could not attach deletion listener", err)
		}
	}

	c.logger.Info("coordinator initialized",
		"instances", len(c.instances),
		"command", c.opts.CommandLabel)
	return c, nil
}

func (c *Coordinator) registrationError(inst toolctl.Instance, index int, msg string, err error) error {
	c.logger.WithInstance(inst.ID()).Error(msg, "error", err.Error())
	return errors.NewInitializationError(msg, errors.Join(errors.ErrRegistrationFailed, err)).
		WithSource(inst.Source(), index).
		WithCreated(c.instanceIDs())
}

// CloseAll runs the pre-close hook, then requests deletion of every tracked
// instance that is not yet deleted, in creation order. Every pending
// instance gets exactly one request per call, even when earlier ones fail.
// Failures are returned together as an *errors.PartialCloseError.
//
// Instances already deleted, by an earlier call or by the user, are skipped.
// A call made while another pass is running returns nil without doing
// anything.
func (c *Coordinator) CloseAll() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		c.logger.Debug("close-all already in progress")
		return nil
	}
	var pending []toolctl.Instance
	for _, t := range c.instances {
		if !t.deleted {
			pending = append(pending, t.inst)
		}
	}
	if len(pending) == 0 {
		c.mu.Unlock()
		c.logger.Debug("close-all: nothing left to delete")
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.closing = false
		c.mu.Unlock()
	}()

	c.logger.Info("close-all started", "pending", len(pending))
	c.publish(event.NewCloseAllStartedEvent(len(pending)))

	if c.opts.PreClose != nil {
		if err := c.opts.PreClose(pending); err != nil {
			opErr := errors.NewOperationError("pre-close", err)
			c.logger.Warn("pre-close hook failed", "error", opErr.Error())
		}
	}

	var failures []*errors.OperationError
	for _, inst := range pending {
		if err := inst.Delete(); err != nil {
			opErr := errors.NewOperationError("delete", err).WithInstanceID(inst.ID())
			failures = append(failures, opErr)
			c.logger.WithInstance(inst.ID()).Warn("deletion request failed", "error", err.Error())
			continue
		}
		c.markDeleted(inst.ID())
		c.logger.WithInstance(inst.ID()).Debug("deletion requested")
	}

	c.logger.Info("close-all finished", "attempted", len(pending), "failed", len(failures))
	c.publish(event.NewCloseAllFinishedEvent(len(pending), len(failures)))

	if len(failures) > 0 {
		return &errors.PartialCloseError{Failures: failures, Attempted: len(pending)}
	}
	return nil
}

// onDeletedAction adapts the deletion listener argument.
func (c *Coordinator) onDeletedAction(arg any) {
	inst, _ := arg.(toolctl.Instance)
	c.OnInstanceDeleted(inst)
}

// OnInstanceDeleted handles a deletion notification from the tool. inst may
// be nil or an instance this coordinator does not track.
//
// Termination is keyed on the tool's process-wide live count, not on this
// coordinator's own set: when the count is zero, OnTerminate is called with
// ExitSuccess, once. While the count is positive nothing is signaled.
func (c *Coordinator) OnInstanceDeleted(inst toolctl.Instance) {
	id := ""
	if inst != nil {
		id = inst.ID()
	}

	c.mu.Lock()
	t, isTracked := c.byID[id]
	if isTracked {
		t.deleted = true
	}
	// The count is read under the lock so two concurrent notifications can
	// not both observe a stale positive value and skip termination.
	live := c.tool.LiveInstanceCount()
	terminate := live == 0 && !c.terminated
	if terminate {
		c.terminated = true
		close(c.done)
	}
	c.mu.Unlock()

	c.logger.Info("instance deleted", "instance_id", id, "tracked", isTracked, "live", live)
	c.publish(event.NewInstanceDeletedEvent(id, isTracked, live))

	if !terminate {
		return
	}

	c.logger.Info("all instances closed, terminating", "exit_code", ExitSuccess)
	c.publish(event.NewCoordinatorTerminatedEvent(ExitSuccess))
	if c.opts.OnTerminate != nil {
		c.opts.OnTerminate(ExitSuccess)
	}
}

// Abandon deletes every tracked instance without running the pre-close hook.
// It is meant for cleaning up after a failed Initialize. Failures are
// aggregated like CloseAll's.
func (c *Coordinator) Abandon() error {
	c.mu.Lock()
	var pending []toolctl.Instance
	for _, t := range c.instances {
		if !t.deleted {
			pending = append(pending, t.inst)
		}
	}
	c.mu.Unlock()

	var failures []*errors.OperationError
	for _, inst := range pending {
		if err := inst.Delete(); err != nil {
			failures = append(failures, errors.NewOperationError("delete", err).WithInstanceID(inst.ID()))
			continue
		}
		c.markDeleted(inst.ID())
	}
	if len(failures) > 0 {
		return &errors.PartialCloseError{Failures: failures, Attempted: len(pending)}
	}
	return nil
}

// Done is closed when termination has been signaled.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Terminated reports whether termination has been signaled.
func (c *Coordinator) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// ExitCode returns ExitSuccess once termination has been signaled and
// ExitPending before.
func (c *Coordinator) ExitCode() int {
	if c.Terminated() {
		return ExitSuccess
	}
	return ExitPending
}

// CommandLabel returns the label of the shared close command.
func (c *Coordinator) CommandLabel() string {
	return c.opts.CommandLabel
}

// Instances returns the status of every tracked instance, in creation order.
func (c *Coordinator) Instances() []Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Status, len(c.instances))
	for i, t := range c.instances {
		out[i] = Status{ID: t.inst.ID(), Source: t.inst.Source(), Deleted: t.deleted}
	}
	return out
}

func (c *Coordinator) markDeleted(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.byID[id]; ok {
		t.deleted = true
	}
}

// instanceIDs returns the IDs of the tracked instances. The slice is fixed
// once creation ends, so no lock is needed.
func (c *Coordinator) instanceIDs() []string {
	ids := make([]string, len(c.instances))
	for i, t := range c.instances {
		ids[i] = t.inst.ID()
	}
	return ids
}

func (c *Coordinator) publish(e event.Event) {
	if c.opts.Bus != nil {
		c.opts.Bus.Publish(e)
	}
}
