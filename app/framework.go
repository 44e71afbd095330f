package app

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hsgames/knot/safe"
)

// Framework is a program split into setup, main loop and teardown.
type Framework interface {
	Init() error
	Run() error
	Destroy() error
}

// RunFramework drives f through its phases. Destroy runs whenever Init
// succeeded, even if Run failed.
func RunFramework(f Framework) (err error) {
	defer safe.RecoverError(&err)

	slog.Info("app: run framework start")

	if err = f.Init(); err != nil {
		return errors.WithMessage(err, "app: framework init")
	}

	runErr := f.Run()
	if runErr != nil {
		runErr = errors.WithMessage(runErr, "app: framework run")
	}

	if err = f.Destroy(); err != nil {
		err = errors.WithMessage(err, "app: framework destroy")
		if runErr != nil {
			slog.Error("app: framework run", slog.Any("error", runErr))
		}
		return err
	}

	slog.Info("app: run framework stop")

	return runErr
}
