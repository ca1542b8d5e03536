package errs

import "errors"

var (
	QueueFull      = errors.New("admission queue full")
	UnknownJob     = errors.New("unknown job")
	InvalidPayload = errors.New("invalid job payload")
	WorkerLost     = errors.New("assigned worker went down")
	InternalError  = errors.New("internal error")
)
