// Package toolctl defines the control surface tandem uses to drive an
// external editing tool.
//
// tandem never implements documents, menus, or windows itself. It asks a
// [Tool] to open an [Instance] per document source, attaches commands and a
// deletion listener to each instance, and later asks instances to delete
// themselves. Backends live in their own packages:
//
//   - internal/tmux: each instance is an editor running in a tmux session
//   - internal/toolctl/sim: an in-memory tool for tests and dry runs
//
// # Callback Contract
//
// A tool delivers every callback (command actions and deletion listeners) on
// its own dispatch goroutine, one at a time. By the time a deletion listener
// runs, [Tool.LiveInstanceCount] already excludes the deleted instance.
// Callbacks may call back into the tool, including Delete on any instance.
//
// # Live Count Scope
//
// The live count is process-wide: it covers every instance the tool has open
// for this process, not just those one caller created. [Instance.LiveInstanceCount]
// and [Tool.LiveInstanceCount] report the same number.
package toolctl
