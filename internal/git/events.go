package git

// Event is a tagged value emitted by the loader toward its listeners.
// Listeners are invoked synchronously from the goroutine driving the load
// cycle; they must not call back into the loader.
type Event interface {
	loadEvent()
}

// LoadStarted announces a new batch with the total record count, so a
// caller can drive a progress indicator against it.
type LoadStarted struct {
	Total int
}

// LoadStep reports one inserted record with its 1-based position.
type LoadStep struct {
	Index int
}

// LoadFinished fires after references and branch distances are populated;
// the cache is safe to read from other goroutines afterwards.
type LoadFinished struct{}

// CancelRequested fires when an in-flight load cycle is cancelled.
type CancelRequested struct{}

func (LoadStarted) loadEvent()     {}
func (LoadStep) loadEvent()        {}
func (LoadFinished) loadEvent()    {}
func (CancelRequested) loadEvent() {}
