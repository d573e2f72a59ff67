package clazy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/config"
)

// Output is what clazy wrote to its output streams.
type Output struct {
	Stdout string
	Stderr string
}

// ExitError is returned when clazy ran, but exited with a non-zero code.
type ExitError struct {
	Code   int
	Output Output
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("clazy exited with code %d", e.Code)
}

// Executor starts a process and waits for it to exit. Cancelling ctx must
// kill the process.
type Executor interface {
	Execute(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, exitCode int, err error)
}

// ProcessExecutor runs real processes.
type ProcessExecutor struct{}

func (ProcessExecutor) Execute(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, exitCode int, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, err
}

func NewRunner(log *slog.Logger, executor Executor) *Runner {
	if executor == nil {
		executor = ProcessExecutor{}
	}
	return &Runner{
		log:      log,
		executor: executor,
	}
}

// Runner runs clazy.
type Runner struct {
	log      *slog.Logger
	executor Executor
}

// Run runs clazy over files in dir and waits for it to exit.
//
// If ctx is cancelled before or while clazy runs, the process is killed and
// ctx.Err() is returned with no output. A non-zero exit returns an *ExitError
// holding the output.
func (r *Runner) Run(ctx context.Context, c config.Config, dir string, files []string) (output Output, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	args := Args(c, files)
	log := r.log.With(slog.String("executable", c.Executable), slog.String("dir", dir))
	log.Info("running clazy", slog.String("commandLine", CommandLine(c.Executable, args)))

	stdout, stderr, exitCode, err := r.executor.Execute(ctx, dir, c.Executable, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Info("clazy cancelled")
		return Output{}, ctxErr
	}
	if err != nil {
		log.Error("failed to run clazy", slog.Any("error", err))
		return Output{}, fmt.Errorf("failed to run %s: %w", c.Executable, err)
	}
	output = Output{
		Stdout: string(stdout),
		Stderr: string(stderr),
	}
	log.Debug("clazy stdout", slog.String("stdout", output.Stdout))
	if output.Stderr != "" {
		log.Warn("clazy stderr", slog.String("stderr", output.Stderr))
	}
	if exitCode != 0 {
		log.Error("clazy exited with a non-zero code", slog.Int("exitCode", exitCode))
		return output, &ExitError{Code: exitCode, Output: output}
	}
	return output, nil
}

// CommandLine formats a command for logs.
func CommandLine(executable string, args []string) string {
	return strings.Join(append([]string{executable}, args...), " ")
}
