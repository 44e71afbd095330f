package tcp

import "time"

const (
	// Forever disables the timeout of an operation.
	Forever time.Duration = -1

	DefaultTimeout = 600 * time.Second

	// ChunkSize is the largest single read issued by the receive path.
	ChunkSize = 4096

	// pollWindow is the readiness window granted to a zero timeout.
	pollWindow = time.Millisecond
)

func deadline(timeout time.Duration) time.Time {
	switch {
	case timeout < 0:
		return time.Time{}
	case timeout == 0:
		return time.Now().Add(pollWindow)
	}

	return time.Now().Add(timeout)
}

func budget(timeout time.Duration) time.Duration {
	switch {
	case timeout < 0:
		return 0
	case timeout == 0:
		return pollWindow
	}

	return timeout
}
