package task

// Task is a unit of work executed inside a child process.
//
// T is the concrete type implementing the interface, usually a pointer to a
// struct, so that SyncWith receives a value of the same type it is called on:
//
//	type Resize struct{ ... }
//	func (r *Resize) Run() error            { ... }
//	func (r *Resize) SyncWith(o *Resize)    { ... }
type Task[T any] interface {
	// Run executes the work. It is only called in the child process and may
	// mutate the receiver; the mutated state is shipped back to the controller.
	Run() error

	// SyncWith merges the state of a separately decoded copy into the receiver.
	// It is called on the caller's original instance, never on the copy.
	SyncWith(other T)
}
