package main

import (
	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/agent"
	"github.com/urfave/cli/v2"
)

// Version is a build-time variable. The value is overridden by ldflags.
var Version string

func envVar(name string) []string {
	return []string{"CONTAINERVM_" + name}
}

func App(argv []string) error {
	args := agent.DefaultCLIArgs()

	app := &cli.App{
		Name:      consts.ProgramName,
		Usage:     "run the containers described by a manifest and keep them alive",
		ArgsUsage: "[containers.yaml]",
		Version:   Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "log-level",
				Value:       args.Log.Level,
				Usage:       "log verbosity level: 2 (Error), 3 (Warning), 4 (Info), 5 (Debug), 6 (Trace)",
				EnvVars:     envVar("LOG_LEVEL"),
				Destination: &args.Log.Level,
			},
			&cli.PathFlag{
				Name:        "log-file",
				Usage:       "Append logs to this file instead of stdout",
				EnvVars:     envVar("LOG_FILE"),
				Destination: &args.Log.File,
			},
			&cli.BoolFlag{
				Name:        "syslog",
				Value:       args.Log.Syslog,
				Usage:       "Mirror logs to syslog (facility local3)",
				EnvVars:     envVar("SYSLOG"),
				Destination: &args.Log.Syslog,
			},
			&cli.StringFlag{
				Name:        "syslog-network",
				Usage:       "Syslog network, e.g. udp; empty for the local daemon",
				EnvVars:     envVar("SYSLOG_NETWORK"),
				Destination: &args.Log.SyslogNetwork,
			},
			&cli.StringFlag{
				Name:        "syslog-address",
				Usage:       "Syslog address, e.g. localhost:514",
				EnvVars:     envVar("SYSLOG_ADDRESS"),
				Destination: &args.Log.SyslogAddress,
			},
			&cli.StringFlag{
				Name:        "runtime",
				Value:       args.Runtime.Backend,
				Usage:       "Container runtime backend: api (Docker Engine API) or cli (docker binary)",
				EnvVars:     envVar("RUNTIME"),
				Destination: &args.Runtime.Backend,
			},
			&cli.StringFlag{
				Name:        "docker-binary",
				Value:       args.Runtime.DockerBinary,
				Usage:       "docker client used by the cli runtime",
				EnvVars:     envVar("DOCKER_BINARY"),
				Destination: &args.Runtime.DockerBinary,
			},
			&cli.PathFlag{
				Name:        "volumes-root",
				Value:       args.Manifest.VolumesRoot,
				Usage:       "Host directory holding the manifest volumes",
				EnvVars:     envVar("VOLUMES_ROOT"),
				Destination: &args.Manifest.VolumesRoot,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "Reject manifest fields that are not part of the schema",
				EnvVars:     envVar("STRICT"),
				Destination: &args.Manifest.Strict,
			},
			&cli.IntFlag{
				Name:        "pull-attempts",
				Value:       args.Driver.PullAttempts,
				Usage:       "Image pull attempts before giving up",
				EnvVars:     envVar("PULL_ATTEMPTS"),
				Destination: &args.Driver.PullAttempts,
			},
			&cli.DurationFlag{
				Name:        "pull-delay",
				Value:       args.Driver.PullDelay,
				Usage:       "Pause between image pull attempts",
				EnvVars:     envVar("PULL_DELAY"),
				Destination: &args.Driver.PullDelay,
			},
			&cli.DurationFlag{
				Name:        "restart-delay",
				Value:       args.Driver.RestartDelay,
				Usage:       "Pause between a container exit and its restart",
				EnvVars:     envVar("RESTART_DELAY"),
				Destination: &args.Driver.RestartDelay,
			},
			&cli.BoolFlag{
				Name:        "check-host-ports",
				Usage:       "Warn about published host ports that are already bound",
				EnvVars:     envVar("CHECK_HOST_PORTS"),
				Destination: &args.Driver.CheckHostPorts,
			},
		},
		Action: func(c *cli.Context) error {
			if err := setManifestPath(c, &args); err != nil {
				return err
			}
			return exitOnError(start(&args))
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Load and resolve the manifest, print the resulting group and exit",
				ArgsUsage: "[containers.yaml]",
				Action: func(c *cli.Context) error {
					if err := setManifestPath(c, &args); err != nil {
						return err
					}
					return exitOnError(validate(&args, c.App.Writer))
				},
			},
		},
	}
	return app.Run(argv)
}

func setManifestPath(c *cli.Context, args *agent.CLIArgs) error {
	if c.NArg() > 1 {
		return cli.Exit("FATAL: usage: "+consts.ProgramName+" [containers.yaml]", 1)
	}
	args.Manifest.Path = c.Args().First()
	return nil
}
