package symbol

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
)

// ExecContext is the explicit state threaded through every action, hook,
// and expansion invocation; there is no module-level mutable state.
type ExecContext struct {
	DryRun        bool
	Shebang       string // default interpreter, e.g. "/bin/sh -c"
	FIFOName      string // non-POSIX shebang support
	Lockfile      string
	User          *user.User
	UserData      map[string]any
	Expand        func(script string) string // variable expansion for this invocation's context
	Log           func(line string, rc int)
}

// Invoke calls a resolved symbol following its declared API style and
// dry-run semantics.
func Invoke(ctx context.Context, sym *Symbol, ec *ExecContext, rawScript string) (output string, rc int, err error) {
	if ec.DryRun && !sym.Permanent && sym.Type != TypeNone {
		return "", 0, nil
	}
	script := rawScript
	if ec.Expand != nil {
		script = ec.Expand(rawScript)
	}

	switch sym.API {
	case APIStdout:
		out, err := runStdoutCapture(ctx, sym, ec, script)
		if err != nil {
			return out, 1, err
		}
		return out, 0, nil
	default:
		var out string
		if err := sym.Fn(ctx, ec, script, &out); err != nil {
			return out, 1, err
		}
		return out, 0, nil
	}
}

// runStdoutCapture implements the APIStdout contract: run the symbol's Fn
// with stdout connected to a pipe whose output is reassembled here,
// bounded by StdoutMaxBuf.
func runStdoutCapture(ctx context.Context, sym *Symbol, ec *ExecContext, script string) (string, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("stdout capture: %w", err)
	}
	defer r.Close()

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		defer close(done)
		io.CopyN(&buf, r, StdoutMaxBuf)
	}()

	origStdout := os.Stdout
	os.Stdout = w
	var fnErr error
	func() {
		defer func() { os.Stdout = origStdout; w.Close() }()
		var discarded string
		fnErr = sym.Fn(ctx, ec, script, &discarded)
	}()
	<-done
	return buf.String(), fnErr
}

// ExternalCommand runs the default script executor: the resolved shebang
// (or the process shell) invoking the expanded script text.
func ExternalCommand(ctx context.Context, shebang, script string) (string, error) {
	shell := shebang
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
	}
	cmd := exec.CommandContext(ctx, shell, "-c", script)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
