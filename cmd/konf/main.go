// konf is the standalone configuration client: it forwards its non-option
// arguments to konfd as one query line, re-quoting arguments that contain
// spaces, and prints the daemon's stream reply.
package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/go-klish/klish/internal/appconfig"
	"github.com/go-klish/klish/internal/konfclient"
	"github.com/go-klish/klish/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := logging.New(logging.Options{Level: os.Getenv("KONF_LOG_LEVEL")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg := appconfig.New(logger)
	cfg.Load()

	var socketPath string
	flag.StringVarP(&socketPath, "socket", "s", cfg.GetString("KONFD_SOCKET"), "config daemon socket path")
	// The query's own short options (-s/-u/-d, -l, -r, ...) belong to the
	// wire protocol, not to this binary; stop flag parsing at the first
	// non-flag argument so they pass through untouched.
	flag.CommandLine.SetInterspersed(false)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: empty query")
		return 2
	}

	client := konfclient.New(socketPath)
	defer client.Close()

	out, err := client.Raw(composeQuery(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if out != "" {
		fmt.Print(out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Println()
		}
	}
	return 0
}

// composeQuery joins the arguments into one query line, quoting any that
// contain spaces and escaping embedded quote characters.
func composeQuery(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\'`).Replace(a)
		if strings.ContainsAny(a, " \t") {
			quoted[i] = `"` + esc + `"`
		} else {
			quoted[i] = esc
		}
	}
	return strings.Join(quoted, " ")
}
