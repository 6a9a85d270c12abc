package agent

import (
	"io"
	"os"
	"time"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/dstackai/dstack/agent/internal/manifest"
)

type CLIArgs struct {
	Log struct {
		Level         int
		File          string
		Syslog        bool
		SyslogNetwork string
		SyslogAddress string
	}

	Manifest struct {
		// empty or "-" reads standard input
		Path        string
		VolumesRoot string
		Strict      bool
	}

	Runtime struct {
		Backend      string
		DockerBinary string
	}

	Driver struct {
		PullAttempts   int
		PullDelay      time.Duration
		RestartDelay   time.Duration
		CheckHostPorts bool
	}
}

// DefaultCLIArgs returns the arguments used when no flag is given.
func DefaultCLIArgs() CLIArgs {
	var args CLIArgs
	args.Log.Level = 4
	args.Log.Syslog = true
	args.Manifest.VolumesRoot = consts.VolumesRootDir
	args.Runtime.Backend = consts.RuntimeAPI
	args.Runtime.DockerBinary = consts.DockerBinary
	args.Driver.PullAttempts = consts.PullAttempts
	args.Driver.PullDelay = consts.PullRetryDelay
	args.Driver.RestartDelay = consts.RestartDelay
	return args
}

func (a *CLIArgs) Loader() *manifest.Loader {
	if a.Manifest.VolumesRoot == "" {
		return manifest.NewLoader()
	}
	return manifest.NewLoader(manifest.WithVolumesRoot(a.Manifest.VolumesRoot))
}

func (a *CLIArgs) DriverOptions() []Option {
	return []Option{
		WithPullRetry(a.Driver.PullAttempts, a.Driver.PullDelay),
		WithRestartDelay(a.Driver.RestartDelay),
		WithHostPortCheck(a.Driver.CheckHostPorts),
	}
}

// OpenManifest opens the manifest file, or standard input if no path is set.
func (a *CLIArgs) OpenManifest() (io.ReadCloser, error) {
	if a.Manifest.Path == "" || a.Manifest.Path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(a.Manifest.Path)
	if err != nil {
		return nil, gerrors.Wrap(err)
	}
	return f, nil
}
