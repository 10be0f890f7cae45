package tmux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/sources"
	"github.com/Iron-Ham/tandem/internal/toolctl"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultEditor     = "vi"
	DefaultWidth      = 200
	DefaultHeight     = 50
	DefaultMenuKey    = "F12"
	DefaultPollMin    = 250 * time.Millisecond
	DefaultPollMax    = 2 * time.Second
	DefaultSaveSettle = 250 * time.Millisecond

	commandTimeout = 5 * time.Second
)

// Config configures the tmux backend.
type Config struct {
	Socket     string        // tmux -L socket name; DefaultSocketName() if empty
	Editor     string        // command run in each session, followed by the source
	Width      int           // initial window width
	Height     int           // initial window height
	MenuKey    string        // key (no prefix) that opens the command menu
	PollMin    time.Duration // session watcher interval right after a change
	PollMax    time.Duration // session watcher interval when idle
	SaveSettle time.Duration // pause after sending save keys; negative for none
}

func (c Config) withDefaults() Config {
	if c.Socket == "" {
		c.Socket = DefaultSocketName()
	}
	if c.Editor == "" {
		c.Editor = DefaultEditor
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.MenuKey == "" {
		c.MenuKey = DefaultMenuKey
	}
	if c.PollMin <= 0 {
		c.PollMin = DefaultPollMin
	}
	if c.PollMax < c.PollMin {
		c.PollMax = max(DefaultPollMax, c.PollMin)
	}
	switch {
	case c.SaveSettle == 0:
		c.SaveSettle = DefaultSaveSettle
	case c.SaveSettle < 0:
		c.SaveSettle = 0
	}
	return c
}

// runFunc runs one tmux command on the tool's socket and returns its
// combined output.
type runFunc func(ctx context.Context, args ...string) ([]byte, error)

func execRunner(socket string) runFunc {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		return CommandContextWithSocket(ctx, socket, args...).CombinedOutput()
	}
}

// Tool is a toolctl.Tool driving a private tmux server.
type Tool struct {
	cfg        Config
	run        runFunc
	logger     *logging.Logger
	dispatcher *toolctl.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// changed wakes the session watcher so it polls at the fast rate again.
	changed chan struct{}

	mu        sync.Mutex
	nextN     int
	live      map[string]*Instance
	menu      []menuItem
	closed    bool
	closeOnce sync.Once
}

type menuItem struct {
	label string
	slug  string
}

// Instance is one document open in a tmux session.
type Instance struct {
	tool    *Tool
	session string
	source  string

	// waiters stop when ctx is canceled, on deletion or tool close.
	ctx    context.Context
	cancel context.CancelFunc

	// Guarded by tool.mu.
	commands map[string]string // slug -> label
	listener toolctl.Action
	deleted  bool
}

// Compile-time interface checks.
var (
	_ toolctl.Tool     = (*Tool)(nil)
	_ toolctl.Instance = (*Instance)(nil)
)

// New returns a tmux backend. It fails with errors.ErrToolUnavailable when
// tmux is not installed.
func New(cfg Config, logger *logging.Logger) (*Tool, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, errors.Wrap(errors.ErrToolUnavailable, "tmux not found in PATH")
	}
	cfg = cfg.withDefaults()
	return newTool(cfg, logger, execRunner(cfg.Socket)), nil
}

func newTool(cfg Config, logger *logging.Logger, run runFunc) *Tool {
	if logger == nil {
		logger = logging.NopLogger()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tool{
		cfg:        cfg,
		run:        run,
		logger:     logger.With("socket", cfg.Socket),
		dispatcher: toolctl.NewDispatcher(logger),
		ctx:        ctx,
		cancel:     cancel,
		changed:    make(chan struct{}, 1),
		live:       make(map[string]*Instance),
	}
	t.wg.Add(1)
	go t.watch()
	return t
}

// Socket returns the tmux socket name, for attaching with tmux -L.
func (t *Tool) Socket() string {
	return t.cfg.Socket
}

// CreateInstance opens source in the editor inside a new detached session.
func (t *Tool) CreateInstance(source string) (toolctl.Instance, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errors.NewCreationError("tool is closed", errors.ErrToolUnavailable).WithSource(source)
	}
	t.nextN++
	session := SessionName(t.nextN)
	t.mu.Unlock()

	args := []string{
		"new-session", "-d",
		"-s", session,
		"-n", sources.ShortName(source),
		"-x", strconv.Itoa(t.cfg.Width),
		"-y", strconv.Itoa(t.cfg.Height),
	}
	args = append(args, strings.Fields(t.cfg.Editor)...)
	args = append(args, source)

	if out, err := t.runTimeout(args...); err != nil {
		return nil, errors.NewCreationError("tmux new-session failed", commandError(err, out)).WithSource(source)
	}

	ctx, cancel := context.WithCancel(t.ctx)
	inst := &Instance{
		tool:     t,
		session:  session,
		source:   source,
		ctx:      ctx,
		cancel:   cancel,
		commands: make(map[string]string),
	}

	t.mu.Lock()
	t.live[session] = inst
	t.mu.Unlock()
	t.notifyChanged()

	t.logger.Info("session created", "session", session, "source", source)
	return inst, nil
}

// LiveInstanceCount returns the number of sessions whose deletion has not
// been delivered yet.
func (t *Tool) LiveInstanceCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Close stops the watcher and every waiter, kills the tmux server and
// stops the dispatch goroutine. Listeners are not notified for sessions
// that were still open.
func (t *Tool) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		t.cancel()
		t.wg.Wait()

		if out, runErr := t.runTimeout("kill-server"); runErr != nil && !serverGone(out) {
			err = errors.NewOperationError("kill-server", commandError(runErr, out))
		}
		t.dispatcher.Close()
		t.logger.Info("tmux backend closed")
	})
	return err
}

// SaveHook returns a pre-close hook that sends keys to every instance, then
// waits for the editors to settle. Keys use Bubble Tea style names.
func (t *Tool) SaveHook(keys []string) func([]toolctl.Instance) error {
	tmuxKeys := make([]string, len(keys))
	for i, k := range keys {
		tmuxKeys[i] = MapKeyToTmux(k)
	}
	return func(instances []toolctl.Instance) error {
		if len(tmuxKeys) == 0 {
			return nil
		}
		var errs []error
		for _, inst := range instances {
			if err := t.SendKeys(inst.ID(), tmuxKeys...); err != nil {
				errs = append(errs, err)
			}
		}
		if t.cfg.SaveSettle > 0 {
			time.Sleep(t.cfg.SaveSettle)
		}
		return errors.Join(errs...)
	}
}

// SendKeys sends tmux key names to the pane of session.
func (t *Tool) SendKeys(session string, keys ...string) error {
	args := append([]string{"send-keys", "-t", session}, keys...)
	if out, err := t.runTimeout(args...); err != nil {
		return errors.NewOperationError("send-keys", commandError(err, out)).WithInstanceID(session)
	}
	return nil
}

func (t *Tool) runTimeout(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return t.run(ctx, args...)
}

// registerMenuItem adds label to the shared menu and rebinds the menu key
// when the label is new. The menu is server-wide; each item signals the
// channel of the session it was opened from.
func (t *Tool) registerMenuItem(label, slug string) error {
	t.mu.Lock()
	for _, item := range t.menu {
		if item.slug == slug {
			t.mu.Unlock()
			return nil
		}
	}
	t.menu = append(t.menu, menuItem{label: label, slug: slug})
	args := t.menuArgsLocked()
	t.mu.Unlock()

	if out, err := t.runTimeout(args...); err != nil {
		return errors.NewOperationError("bind-key", commandError(err, out))
	}
	return nil
}

func (t *Tool) menuArgsLocked() []string {
	args := []string{"bind-key", "-n", t.cfg.MenuKey, "display-menu", "-T", "tandem"}
	for i, item := range t.menu {
		shortcut := ""
		if i < 9 {
			shortcut = strconv.Itoa(i + 1)
		}
		args = append(args, item.label, shortcut, "wait-for -S "+QuoteArg(menuChannel(item.slug)))
	}
	return args
}

// wait turns signals on channel into calls of action, until inst is deleted
// or the tool closes.
func (t *Tool) wait(inst *Instance, channel string, action toolctl.Action, data any) {
	defer t.wg.Done()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = t.cfg.PollMin
	retry.MaxInterval = t.cfg.PollMax
	retry.MaxElapsedTime = 0
	retry.Reset()

	logger := t.logger.WithInstance(inst.session)
	for {
		out, err := t.run(inst.ctx, "wait-for", channel)
		if inst.ctx.Err() != nil {
			return
		}
		if err != nil {
			delay := retry.NextBackOff()
			logger.Debug("wait-for failed, retrying",
				"channel", channel,
				"delay", delay.String(),
				"error", commandError(err, out).Error())
			select {
			case <-inst.ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		retry.Reset()

		logger.Info("command picked", "channel", channel)
		t.dispatcher.Post(func() { action.Run(data) })
	}
}

// watch polls the session list and reports sessions closed from inside tmux.
// It polls at PollMin after a change and backs off to PollMax while idle.
func (t *Tool) watch() {
	defer t.wg.Done()

	ticker := t.newWatchTicker()
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-t.changed:
			ticker.Stop()
			ticker = t.newWatchTicker()
		case <-ticker.C:
			if t.poll() {
				ticker.Stop()
				ticker = t.newWatchTicker()
			}
		}
	}
}

func (t *Tool) newWatchTicker() *backoff.Ticker {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.PollMin
	b.MaxInterval = t.cfg.PollMax
	b.MaxElapsedTime = 0
	return backoff.NewTicker(b)
}

// poll compares the live set with the server's session list and marks the
// missing sessions deleted. It reports whether anything changed.
func (t *Tool) poll() bool {
	t.mu.Lock()
	if len(t.live) == 0 {
		t.mu.Unlock()
		return false
	}
	snapshot := make([]*Instance, 0, len(t.live))
	for _, inst := range t.live {
		if !inst.deleted {
			snapshot = append(snapshot, inst)
		}
	}
	t.mu.Unlock()

	out, err := t.runTimeout("list-sessions", "-F", "#{session_name}")
	present := make(map[string]bool)
	if err != nil {
		if !serverGone(out) {
			t.logger.Warn("list-sessions failed", "error", commandError(err, out).Error())
			return false
		}
	} else {
		for _, line := range strings.Split(string(out), "\n") {
			if name := strings.TrimSpace(line); name != "" {
				present[name] = true
			}
		}
	}

	changed := false
	for _, inst := range snapshot {
		if !present[inst.session] {
			if t.markDeleted(inst, "closed in tmux") {
				changed = true
			}
		}
	}
	return changed
}

// markDeleted stops the waiters of inst and queues its removal from the live
// set. The removal runs on the dispatch goroutine right before the deletion
// listener, so each listener observes the count with exactly its own
// session gone. It reports false if inst was already deleted.
func (t *Tool) markDeleted(inst *Instance, reason string) bool {
	t.mu.Lock()
	if inst.deleted {
		t.mu.Unlock()
		return false
	}
	inst.deleted = true
	inst.cancel()
	if !t.dispatcher.Post(func() { t.remove(inst, reason) }) {
		delete(t.live, inst.session)
	}
	t.mu.Unlock()

	t.notifyChanged()
	return true
}

func (t *Tool) remove(inst *Instance, reason string) {
	t.mu.Lock()
	delete(t.live, inst.session)
	live := len(t.live)
	listener := inst.listener
	t.mu.Unlock()

	t.logger.Info("session deleted", "session", inst.session, "reason", reason, "live", live)
	if listener != nil {
		listener.Run(inst)
	}
}

func (t *Tool) notifyChanged() {
	select {
	case t.changed <- struct{}{}:
	default:
	}
}

// ID implements toolctl.Instance. It is the tmux session name.
func (i *Instance) ID() string { return i.session }

// Source implements toolctl.Instance.
func (i *Instance) Source() string { return i.source }

// AddCommand implements toolctl.Instance.
func (i *Instance) AddCommand(label string, action toolctl.Action, data any) error {
	if action == nil {
		return errors.NewValidationError("action must not be nil").WithField("action")
	}
	slug := Slug(label)

	t := i.tool
	t.mu.Lock()
	if i.deleted {
		t.mu.Unlock()
		return errors.Wrapf(errors.ErrInstanceDeleted, "adding command %q to %s", label, i.session)
	}
	if existing, ok := i.commands[slug]; ok {
		t.mu.Unlock()
		return errors.NewValidationError(fmt.Sprintf("command %q clashes with %q", label, existing)).
			WithField("label").
			WithValue(label)
	}
	i.commands[slug] = label
	t.mu.Unlock()

	if err := t.registerMenuItem(label, slug); err != nil {
		t.mu.Lock()
		delete(i.commands, slug)
		t.mu.Unlock()
		return err
	}

	t.wg.Add(1)
	go t.wait(i, ChannelName(i.session, slug), action, data)
	return nil
}

// SetDeletionListener implements toolctl.Instance.
func (i *Instance) SetDeletionListener(action toolctl.Action) error {
	i.tool.mu.Lock()
	defer i.tool.mu.Unlock()

	if i.deleted {
		return errors.Wrapf(errors.ErrInstanceDeleted, "setting deletion listener on %s", i.session)
	}
	i.listener = action
	return nil
}

// Delete implements toolctl.Instance by killing the session. If kill-session
// fails but the session no longer exists, the deletion still counts.
func (i *Instance) Delete() error {
	t := i.tool
	t.mu.Lock()
	deleted := i.deleted
	t.mu.Unlock()
	if deleted {
		return nil
	}

	out, err := t.runTimeout("kill-session", "-t", i.session)
	if err != nil {
		if _, hasErr := t.runTimeout("has-session", "-t", i.session); hasErr == nil {
			return errors.NewDeletionError("tmux kill-session failed", commandError(err, out)).WithInstanceID(i.session)
		}
	}

	t.markDeleted(i, "deleted")
	return nil
}

// LiveInstanceCount implements toolctl.Instance.
func (i *Instance) LiveInstanceCount() int {
	return i.tool.LiveInstanceCount()
}

// serverGone reports whether tmux output says no server is running on the
// socket, which means every session is gone.
func serverGone(out []byte) bool {
	return bytes.Contains(out, []byte("no server running")) ||
		bytes.Contains(out, []byte("error connecting to"))
}

func commandError(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
