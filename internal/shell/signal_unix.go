//go:build unix

package shell

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// withActionSignals runs fn with SIGINT/SIGQUIT/SIGHUP ignored in the
// parent for the action's duration, restoring normal disposition
// afterward. Commands declaring interrupt=true skip this and let the
// signals propagate so a long-running action can be cancelled.
func withActionSignals(interrupt bool, fn func()) {
	if interrupt {
		fn()
		return
	}
	signal.Ignore(unix.SIGINT, unix.SIGQUIT, unix.SIGHUP)
	defer signal.Reset(unix.SIGINT, unix.SIGQUIT, unix.SIGHUP)
	fn()
}
