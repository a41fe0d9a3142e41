// Package builder runs package build scripts.
package builder

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/model"
)

//go:generate mockgen -destination=../orchestrator/mocks/builder.go -package=mocks . Builder

// Builder compiles a staged package into the fake root described by env.
type Builder interface {
	Run(ctx context.Context, env model.BuildEnv) error
}

// outputTail is how much of a quiet build's output is kept for the error message.
const outputTail = 4 << 10

// ScriptBuilder executes the package's build script as a subprocess.
type ScriptBuilder struct {
	stdout io.Writer
	stderr io.Writer
}

// NewScriptBuilder returns a builder that streams verbose output to the process stdout and stderr.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{stdout: os.Stdout, stderr: os.Stderr}
}

// Run executes env.Package.BuildScript with the build directory as working directory.
func (b *ScriptBuilder) Run(ctx context.Context, env model.BuildEnv) error {
	if env.Package == nil {
		return fmt.Errorf("no package to build: %w", errors.ErrBuildFailed)
	}
	script := env.Package.BuildScript
	info, err := os.Stat(script)
	if err != nil {
		return fmt.Errorf("build script %s: %w: %w", script, errors.ErrBuildFailed, err)
	}

	var cmd *exec.Cmd
	if info.Mode().Perm()&0o111 != 0 {
		cmd = exec.CommandContext(ctx, script) //nolint:gosec // script comes from the catalog
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", script) //nolint:gosec
	}
	cmd.Dir = env.BuildDir
	cmd.Env = append(os.Environ(), env.Environ()...)

	tail := &tailBuffer{limit: outputTail}
	if env.Verbose {
		cmd.Stdout = b.stdout
		cmd.Stderr = b.stderr
	} else {
		cmd.Stdout = tail
		cmd.Stderr = tail
	}

	logger.Debug("Running build script", logger.Fields{
		"package": env.Package.Name,
		"script":  script,
		"dir":     env.BuildDir,
	})

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if goerrors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := fmt.Sprintf("%s exited with code %d", script, exitCode)
		if out := strings.TrimSpace(tail.String()); out != "" {
			msg += "\n" + out
		}
		return fmt.Errorf("%s: %w: %w", msg, errors.ErrBuildFailed, err)
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
