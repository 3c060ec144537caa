package state

// Status is the lifecycle position of a slice's most recent operation.
type Status int

const (
	Idle Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Request is the status/error pair every slice carries. Error is empty
// unless Status is Failed.
type Request struct {
	Status Status
	Error  string
}

func (r *Request) start() {
	r.Status = Loading
	r.Error = ""
}

func (r *Request) succeed() {
	r.Status = Succeeded
	r.Error = ""
}

func (r *Request) fail(err error) {
	r.Status = Failed
	r.Error = err.Error()
}

// Loading reports whether an operation is in flight.
func (r Request) Loading() bool { return r.Status == Loading }

// Failed reports whether the last operation failed.
func (r Request) Failed() bool { return r.Status == Failed }

// Succeeded reports whether the last operation succeeded.
func (r Request) Succeeded() bool { return r.Status == Succeeded }

// Err returns the last failure message, or "".
func (r Request) Err() string { return r.Error }
