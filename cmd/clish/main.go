package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/go-klish/klish/internal/appconfig"
	"github.com/go-klish/klish/internal/konfclient"
	"github.com/go-klish/klish/internal/logging"
	"github.com/go-klish/klish/internal/pathutil"
	"github.com/go-klish/klish/internal/scheme"
	"github.com/go-klish/klish/internal/shell"
	"github.com/go-klish/klish/internal/symbol"
)

type options struct {
	socketPath  string
	lockless    bool
	stopOnError bool
	batch       bool
	quiet       bool
	forceUTF8   bool
	force8Bit   bool
	dryRun      bool
	syntaxCheck bool
	schemePath  string
	initialView string
	viewIDs     string
	syslog      bool
	facility    string
	idleTimeout int
	commands    []string
	historyFile string
	stifle      int
	xsltPath    string
}

func parseFlags(cfg *appconfig.Manager) *options {
	o := &options{}
	flag.StringVarP(&o.socketPath, "socket", "s", cfg.GetString("KONFD_SOCKET"), "config daemon socket path")
	flag.BoolVarP(&o.lockless, "lockless", "l", false, "do not use a lock file")
	flag.BoolVarP(&o.stopOnError, "stop-on-error", "e", false, "stop script execution on the first error")
	flag.BoolVarP(&o.batch, "background", "b", false, "non-interactive (batch) mode")
	flag.BoolVarP(&o.quiet, "quiet", "q", false, "suppress echo of command output")
	flag.BoolVarP(&o.forceUTF8, "utf8", "u", false, "force UTF-8 input handling")
	flag.BoolVarP(&o.force8Bit, "8bit", "8", false, "force 8-bit input handling")
	flag.BoolVarP(&o.dryRun, "dry-run", "d", false, "suppress non-permanent action/config/log symbols")
	flag.BoolVarP(&o.syntaxCheck, "check", "k", false, "syntax check only (implies -l -d)")
	flag.StringVarP(&o.schemePath, "xml-path", "x", cfg.GetString("CLISH_PATH"), "XML scheme directory search path (semicolon-separated)")
	flag.StringVarP(&o.initialView, "view", "w", "", "initial view name")
	flag.StringVarP(&o.viewIDs, "viewid", "i", "", "initial view-id assignments (NAME=VALUE;...)")
	flag.BoolVarP(&o.syslog, "log", "o", false, "enable command logging to syslog")
	flag.StringVarP(&o.facility, "facility", "O", cfg.GetString("CLISH_SYSLOG_FACILITY"), "syslog facility")
	flag.IntVarP(&o.idleTimeout, "timeout", "t", 0, "idle timeout in seconds")
	flag.StringArrayVarP(&o.commands, "command", "c", nil, "execute a literal command (repeatable, implies -q)")
	flag.StringVarP(&o.historyFile, "histfile", "f", cfg.GetString("CLISH_HISTORY_FILE"), "history file path")
	flag.IntVarP(&o.stifle, "histsize", "z", 500, "history stifle limit")
	flag.StringVarP(&o.xsltPath, "xslt", "p", "", "XSLT transform to apply (unsupported backend)")
	flag.Parse()

	if o.syntaxCheck {
		o.lockless = true
		o.dryRun = true
	}
	if len(o.commands) > 0 {
		o.quiet = true
	}
	return o
}

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := logging.New(logging.Options{
		Level:   os.Getenv("CLISH_LOG_LEVEL"),
		Env:     os.Getenv("CLISH_ENV"),
		LogFile: os.Getenv("CLISH_LOG_FILE"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg := appconfig.New(logger)
	cfg.Load()
	o := parseFlags(cfg)
	if o.syslog {
		sl, err := logging.New(logging.Options{
			Level:    os.Getenv("CLISH_LOG_LEVEL"),
			Env:      os.Getenv("CLISH_ENV"),
			LogFile:  os.Getenv("CLISH_LOG_FILE"),
			Syslog:   true,
			Facility: o.facility,
		})
		if err == nil {
			defer sl.Sync()
			logger = sl
		}
	}

	if o.forceUTF8 && o.force8Bit {
		fmt.Fprintln(os.Stderr, "Error: -u and -8 are mutually exclusive")
		return 2
	}
	if o.xsltPath != "" {
		fmt.Fprintln(os.Stderr, "Error: XSLT support is not built in")
		return 2
	}

	histFile, err := pathutil.ExpandTilde(o.historyFile)
	if err != nil {
		logger.Warn("history path", zap.Error(err))
		histFile = ""
	}

	lockfile := cfg.GetString("CLISH_LOCKFILE")
	if o.lockless {
		lockfile = ""
	}

	scripts := flag.Args()
	interactive := !o.batch && len(scripts) == 0 && len(o.commands) == 0

	eng := shell.New(shell.Options{
		Interactive: interactive,
		Quiet:       o.quiet,
		DryRun:      o.dryRun,
		SyntaxCheck: o.syntaxCheck,
		LogActions:  o.syslog,
		Lockfile:    lockfile,
		IdleTimeout: time.Duration(o.idleTimeout) * time.Second,
		HistoryFile: histFile,
		HistorySize: o.stifle,
		StopOnError: o.stopOnError,
	}, logger)

	if err := eng.Initialize(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer eng.Close()

	if err := eng.Symbols.Load(symbol.NewLuaPlugin()); err != nil {
		logger.Warn("lua plugin", zap.Error(err))
	}

	dirs, err := pathutil.SplitSearchPath(o.schemePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	res, err := scheme.New().LoadDirs(dirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	eng.LoadScheme(res)

	for _, pl := range res.Plugins {
		if pl.File == "" {
			continue
		}
		if info, err := os.Stat(pl.File); err == nil && info.IsDir() {
			mgr, err := symbol.NewManager(pl.File, eng.Symbols, logger)
			if err != nil {
				logger.Warn("plugin dir", zap.String("name", pl.Name), zap.Error(err))
				continue
			}
			defer mgr.Close()
			if err := mgr.Scan(); err != nil {
				logger.Warn("plugin scan", zap.String("name", pl.Name), zap.Error(err))
			}
			go mgr.Watch(context.Background())
			continue
		}
		if err := eng.Symbols.Load(symbol.NewExecPlugin(pl.Name, pl.File)); err != nil {
			logger.Warn("plugin load", zap.String("name", pl.Name), zap.Error(err))
		}
	}

	if err := eng.Prepare(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !o.syntaxCheck && o.socketPath != "" {
		client := konfclient.New(o.socketPath)
		defer client.Close()
		eng.Client = client
	}

	if err := eng.SetInitialView(o.initialView, o.viewIDs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := eng.Startup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, c := range o.commands {
		if err := eng.Execute(ctx, c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if len(o.commands) > 0 {
		return 0
	}

	for i := len(scripts) - 1; i >= 0; i-- {
		if err := eng.PushSource(scripts[i], o.stopOnError); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if len(scripts) == 0 {
		if err := eng.PushSource("", false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := eng.Loop(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
