// Package tmux provides a toolctl.Tool backed by tmux.
//
// Every document is opened in a detached tmux session running the configured
// editor. All sessions of one tandem process live on a private tmux server,
// selected with a socket named "tandem-{pid}", so the live session count of
// that server is exactly the process-wide instance count and other tmux
// users are never affected.
//
// Commands are offered through a display-menu bound to a key. Picking an
// item signals a wait-for channel named after the session and the command,
// which a waiter goroutine turns into a callback.
package tmux

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SocketPrefix is the prefix used for all tandem tmux sockets.
const SocketPrefix = "tandem"

// DefaultSocketName returns the socket used by this process when none is
// configured.
func DefaultSocketName() string {
	return SocketPrefix + "-" + strconv.Itoa(os.Getpid())
}

// CommandWithSocket creates an exec.Cmd for tmux with a custom socket name.
func CommandWithSocket(socket string, args ...string) *exec.Cmd {
	return exec.Command("tmux", CommandArgsWithSocket(socket, args...)...)
}

// CommandContextWithSocket creates a context-aware exec.Cmd with a custom socket.
// Canceling ctx kills the tmux client, which is how blocking wait-for calls
// are stopped.
func CommandContextWithSocket(ctx context.Context, socket string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "tmux", CommandArgsWithSocket(socket, args...)...)
}

// CommandArgsWithSocket returns tmux arguments with a custom socket name.
func CommandArgsWithSocket(socket string, args ...string) []string {
	return append([]string{"-L", socket}, args...)
}

// SessionName returns the tmux session name for the n-th instance.
func SessionName(n int) string {
	return "doc-" + strconv.Itoa(n)
}

// Slug turns a command label into a token usable in a wait-for channel name.
func Slug(label string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(label) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "cmd"
	}
	return slug
}

// ChannelName returns the wait-for channel signaled when the command with
// the given slug is picked in session.
func ChannelName(session, slug string) string {
	return SocketPrefix + "-" + session + "-" + slug
}

// menuChannel is the channel template used inside a menu item. tmux expands
// #{session_name} to the session the menu was opened from.
func menuChannel(slug string) string {
	return ChannelName("#{session_name}", slug)
}

// QuoteArg quotes s for use as one argument inside a tmux command string.
func QuoteArg(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// MapKeyToTmux converts Bubble Tea style key names to tmux key names.
// Bubble Tea uses lowercase names like "left", "backspace" while
// tmux expects capitalized names like "Left", "BSpace". Modifier
// combinations like "ctrl+s" become "C-s".
func MapKeyToTmux(key string) string {
	if rest, ok := strings.CutPrefix(key, "ctrl+"); ok {
		return "C-" + MapKeyToTmux(rest)
	}
	if rest, ok := strings.CutPrefix(key, "alt+"); ok {
		return "M-" + MapKeyToTmux(rest)
	}
	switch key {
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "left":
		return "Left"
	case "right":
		return "Right"
	case "home":
		return "Home"
	case "end":
		return "End"
	case "backspace":
		return "BSpace"
	case "delete":
		return "DC"
	case "insert":
		return "IC"
	case "pgup":
		return "PageUp"
	case "pgdown":
		return "PageDown"
	case "tab":
		return "Tab"
	case "enter":
		return "Enter"
	case "space":
		return "Space"
	case "esc", "escape":
		return "Escape"
	default:
		return key
	}
}
