package event

// ResultKind discriminates the outcome of applying an inbound event.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	// ResultNotFound means the referenced local entity does not exist.
	// Retrying cannot change that, so it is a permanent outcome.
	ResultNotFound
	// ResultTransient covers every other failure, e.g. storage being unavailable.
	ResultTransient
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultNotFound:
		return "not_found"
	case ResultTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Result is returned by business handlers instead of a bare error.
type Result struct {
	Kind ResultKind
	Err  error
}

func Success() Result { return Result{Kind: ResultSuccess} }

func NotFound(err error) Result { return Result{Kind: ResultNotFound, Err: err} }

func Transient(err error) Result { return Result{Kind: ResultTransient, Err: err} }
