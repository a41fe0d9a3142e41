package hooks

import (
	"fmt"

	"github.com/glorpus-work/todd/pkg/errors"
)

// Common hooks errors.
var (
	// ErrHookExecution is returned when there's an error executing a hook.
	ErrHookExecution = fmt.Errorf("error executing hook")

	// ErrHookScript is returned when a hook script reports a failure through its err variable.
	ErrHookScript = fmt.Errorf("hook script error")

	// ErrHookLoad is returned when there's an error loading a hook.
	ErrHookLoad = fmt.Errorf("failed to load hook")
)

// ErrUnsupportedHookType is returned when an unsupported hook type is used.
func ErrUnsupportedHookType(hookType HookType) error {
	return errors.Wrapf(ErrHookExecution, "unsupported hook type: %s", hookType)
}
