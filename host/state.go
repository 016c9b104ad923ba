package host

import "github.com/itohio/glitchprobe/proto"

// State classifies a single measurement run. The interesting outcomes of
// a glitching campaign are the deviations, so a deviating counter is
// Success and the nominal one is merely Expected.
type State int

const (
	// StateExpected: the counter matches the workload size; no fault.
	StateExpected State = iota
	// StateSuccess: a well-formed reply with a deviating counter; the
	// injected fault changed the computation.
	StateSuccess
	// StateWarning: reply framing present but corrupt, or the two
	// counter occurrences disagree. The fault hit the reporting path.
	StateWarning
	// StateError: transport-level failure; the target may be down.
	StateError
)

func (s State) String() string {
	switch s {
	case StateExpected:
		return "expected"
	case StateSuccess:
		return "success"
	case StateWarning:
		return "warning"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Result is the outcome of one measurement cycle.
type Result struct {
	Line    string
	Counter uint32
	State   State
	Err     error
}

// Classify maps one probe reply line to a Result.
func Classify(line string) Result {
	counter, err := proto.ParseReply(line)
	switch {
	case err == nil && counter == proto.WorkloadSize:
		return Result{Line: line, Counter: counter, State: StateExpected}
	case err == nil:
		return Result{Line: line, Counter: counter, State: StateSuccess}
	default:
		return Result{Line: line, State: StateWarning, Err: err}
	}
}
