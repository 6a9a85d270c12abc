package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/agent"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := App(os.Args); err != nil {
		// usage errors are printed by cli
		os.Exit(1)
	}
}

// setupLogging configures the default logger and returns a function
// releasing the log file.
func setupLogging(args *agent.CLIArgs) (func(), error) {
	logger := log.DefaultEntry.Logger
	logger.SetLevel(logrus.Level(args.Log.Level))
	closer := func() {}

	if args.Log.File != "" {
		f, err := log.CreateAppendFile(args.Log.File)
		if err != nil {
			return closer, fmt.Errorf("create log file: %w", err)
		}
		logger.SetOutput(f)
		closer = func() { _ = f.Close() }
	} else {
		logger.SetOutput(os.Stdout)
	}

	if args.Log.Syslog {
		if err := log.AddSyslogHook(logger, args.Log.SyslogNetwork, args.Log.SyslogAddress, consts.ProgramName); err != nil {
			log.Warning(context.TODO(), "Syslog is unavailable", "err", err)
		}
	}
	return closer, nil
}

func start(args *agent.CLIArgs) error {
	closeLog, err := setupLogging(args)
	defer closeLog()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log.Info(ctx, fmt.Sprintf("%s %s starting", consts.ProgramName, Version), "level", logrus.Level(args.Log.Level).String())

	runtime, err := agent.NewRuntime(args)
	if err != nil {
		return err
	}
	if err := agent.Run(ctx, args, runtime); err != nil {
		return err
	}
	log.Info(ctx, "all containers are gone, exiting")
	return nil
}

func validate(args *agent.CLIArgs, out io.Writer) error {
	args.Log.Syslog = false
	closeLog, err := setupLogging(args)
	defer closeLog()
	if err != nil {
		return err
	}

	r, err := args.OpenManifest()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	g, err := agent.LoadGroup(context.TODO(), r, args)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return err
	}
	return enc.Close()
}

// exitOnError logs err and turns it into the FATAL exit.
func exitOnError(err error) error {
	if err == nil {
		return nil
	}
	log.Error(context.TODO(), "Fatal error", "err", err)
	return cli.Exit("FATAL: "+err.Error(), 1)
}
