package translate

// State tags a translation result.
type State int

const (
	// StateDone means the translated text is available.
	StateDone State = iota
	// StatePending means a request is in flight; the renderer may show the
	// original text until the next cycle picks up the cached result.
	StatePending
	// StateFailed means retries were exhausted and the key is cooling down.
	StateFailed
)

func (s State) String() string {
	return [...]string{"done", "pending", "failed"}[s]
}

// Result is the tagged variant handed to the aggregator: Done carries text,
// Pending and Failed are markers.
type Result struct {
	State State
	Text  string
}

// Done wraps a completed translation.
func Done(text string) Result { return Result{State: StateDone, Text: text} }

// Pending marks an in-flight translation.
func Pending() Result { return Result{State: StatePending} }

// Failed marks a translation in its cool-down window.
func Failed() Result { return Result{State: StateFailed} }
