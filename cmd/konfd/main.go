package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/go-klish/klish/internal/appconfig"
	"github.com/go-klish/klish/internal/konf"
	"github.com/go-klish/klish/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		rwSocket    string
		roSocket    string
		pidFile     string
		foreground  bool
		facility    string
		metricsPort int
	)

	logger, err := logging.New(logging.Options{
		Level:   os.Getenv("KONFD_LOG_LEVEL"),
		Env:     os.Getenv("KONFD_ENV"),
		LogFile: os.Getenv("KONFD_LOG_FILE"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg := appconfig.New(logger)
	cfg.Load()

	flag.StringVarP(&rwSocket, "socket", "s", cfg.GetString("KONFD_SOCKET"), "read-write socket path")
	flag.StringVarP(&roSocket, "ro-socket", "S", cfg.GetString("KONFD_RO_SOCKET"), "read-only socket path")
	flag.StringVarP(&pidFile, "pid", "p", cfg.GetString("KONFD_PIDFILE"), "pid file path")
	flag.BoolVarP(&foreground, "foreground", "d", false, "run in the foreground")
	flag.StringVarP(&facility, "facility", "O", cfg.GetString("CLISH_SYSLOG_FACILITY"), "syslog facility")
	flag.IntVar(&metricsPort, "metrics-port", cfg.GetInt("KONFD_METRICS_PORT", 0), "Prometheus /metrics port (0 = disabled)")
	flag.Parse()

	// answer_send relies on MSG_NOSIGNAL in the original protocol; the
	// portable equivalent is ignoring SIGPIPE process-wide.
	signal.Ignore(syscall.SIGPIPE)

	if err := konf.WritePIDFile(pidFile); err != nil {
		logger.Error("pid file", zap.Error(err))
		return 1
	}
	defer konf.RemovePIDFile(pidFile)

	tree := konf.New()
	daemon := konf.NewDaemon(tree, logger)

	if metricsPort > 0 {
		m := konf.NewMetrics()
		daemon.WithMetrics(m)
		srv := konf.NewServer(metricsPort, m, logger)
		srv.Start()
		defer srv.Stop()
	}

	if err := daemon.ListenRW(rwSocket); err != nil {
		logger.Error("rw socket", zap.Error(err))
		return 1
	}
	if roSocket != "" {
		if err := daemon.ListenRO(roSocket); err != nil {
			logger.Error("ro socket", zap.Error(err))
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		sig := <-stop
		logger.Info("stopping", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("konfd listening",
		zap.String("rw", rwSocket),
		zap.String("ro", roSocket))
	daemon.Serve(ctx)
	return 0
}
