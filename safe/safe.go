package safe

import (
	"fmt"
	"log/slog"
	"runtime"
)

func Stack() string {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func Recover() {
	if r := recover(); r != nil {
		slog.Error("panic recover",
			slog.Any("value", r), slog.String("stack", Stack()))
	}
}

// RecoverError turns a panic into *err. It must be deferred directly.
func RecoverError(err *error) {
	if r := recover(); r != nil {
		slog.Error("panic recover",
			slog.Any("value", r), slog.String("stack", Stack()))

		if err != nil {
			*err = fmt.Errorf("safe: panic [%v]", r)
		}
	}
}

func Go(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}
