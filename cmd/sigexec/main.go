// sigexec runs a command line with default signal dispositions. Actions
// spawned by the shell inherit blocked SIGINT/SIGQUIT/SIGHUP; wrapping a
// long-running command in sigexec restores normal signal delivery to it.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	flag "github.com/spf13/pflag"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <command> [args...]\n", os.Args[0])
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	signal.Reset()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			os.Exit(ee.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
