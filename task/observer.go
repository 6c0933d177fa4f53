package task

// Observer receives notifications from a Store.
//
// Callbacks run synchronously while the store is locked; they must not
// call back into the store's mutating methods.
type Observer interface {
	// TasksChanged is called after every mutation and filter change with
	// the visible tasks and the overall counts.
	TasksChanged(visible []Task, stats Stats)

	// ValidationFailed is called when an add or edit is rejected.
	ValidationFailed(reason Reason)

	// TaskDeleted is called after a task is removed, with its text.
	TaskDeleted(text string)

	// PersistFailed is called when the collection could not be written.
	// The in-memory change is kept.
	PersistFailed(err error)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) TasksChanged([]Task, Stats) {}
func (NopObserver) ValidationFailed(Reason)    {}
func (NopObserver) TaskDeleted(string)         {}
func (NopObserver) PersistFailed(error)        {}

// ObserverFuncs adapts optional callbacks to an Observer.
type ObserverFuncs struct {
	OnTasksChanged     func(visible []Task, stats Stats)
	OnValidationFailed func(reason Reason)
	OnTaskDeleted      func(text string)
	OnPersistFailed    func(err error)
}

// TasksChanged implements Observer.
func (o ObserverFuncs) TasksChanged(visible []Task, stats Stats) {
	if o.OnTasksChanged != nil {
		o.OnTasksChanged(visible, stats)
	}
}

// ValidationFailed implements Observer.
func (o ObserverFuncs) ValidationFailed(reason Reason) {
	if o.OnValidationFailed != nil {
		o.OnValidationFailed(reason)
	}
}

// TaskDeleted implements Observer.
func (o ObserverFuncs) TaskDeleted(text string) {
	if o.OnTaskDeleted != nil {
		o.OnTaskDeleted(text)
	}
}

// PersistFailed implements Observer.
func (o ObserverFuncs) PersistFailed(err error) {
	if o.OnPersistFailed != nil {
		o.OnPersistFailed(err)
	}
}

// Observers fans notifications out to each observer in order.
type Observers []Observer

func (obs Observers) TasksChanged(visible []Task, stats Stats) {
	for _, o := range obs {
		o.TasksChanged(visible, stats)
	}
}

func (obs Observers) ValidationFailed(reason Reason) {
	for _, o := range obs {
		o.ValidationFailed(reason)
	}
}

func (obs Observers) TaskDeleted(text string) {
	for _, o := range obs {
		o.TaskDeleted(text)
	}
}

func (obs Observers) PersistFailed(err error) {
	for _, o := range obs {
		o.PersistFailed(err)
	}
}
