package toolctl

// Action is a callback the tool invokes on its dispatch goroutine.
//
// For commands, arg is the data value passed to AddCommand. For deletion
// listeners, arg is the Instance that was deleted.
type Action interface {
	Run(arg any)
}

// ActionFunc adapts an ordinary function to the Action interface.
type ActionFunc func(arg any)

// Run calls f(arg).
func (f ActionFunc) Run(arg any) { f(arg) }

// Tool opens instances of an external editing tool.
type Tool interface {
	// CreateInstance opens source in a new instance. Failures are returned
	// as *errors.CreationError.
	CreateInstance(source string) (Instance, error)

	// LiveInstanceCount returns the number of instances currently open in
	// this process.
	LiveInstanceCount() int

	// Close releases tool resources such as dispatch goroutines. It does
	// not delete open instances.
	Close() error
}

// Instance is an opaque handle to one open document session.
type Instance interface {
	// ID returns a process-unique identifier for the instance.
	ID() string

	// Source returns the document source the instance was created from.
	Source() string

	// AddCommand attaches a named menu command. When the user picks it, the
	// tool calls action.Run(data).
	AddCommand(label string, action Action, data any) error

	// SetDeletionListener sets the action run after this instance is
	// deleted, whether by Delete or by the user closing it. Setting a new
	// listener replaces the previous one.
	SetDeletionListener(action Action) error

	// Delete closes the instance. Deleting an instance that is already
	// gone is a no-op and returns nil. Failures are returned as
	// *errors.DeletionError.
	Delete() error

	// LiveInstanceCount returns the process-wide live instance count.
	LiveInstanceCount() int
}
