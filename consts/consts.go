package consts

import "time"

// ProgramName is used as the syslog tag and in usage output.
const ProgramName = "containervm-agent"

// Manifest versions understood by the loader
var SupportedManifestVersions = []string{"v1beta1"}

// Host directory under which every declared volume lives
const VolumesRootDir = "/export"

const MaxPathLength = 512

// The namespace holder owns the group's network namespace and all published
// ports. Its name contains an underscore, so it is never a valid RFC-1035
// label and cannot collide with a user container.
const (
	NetContainerName  = "net_infra"
	NetContainerImage = "busybox"
)

// NetContainerCommand blocks forever on a fifo read.
var NetContainerCommand = []string{"sh", "-c", "rm -f nap && mkfifo nap && exec cat nap"}

// Runtime driver defaults
const (
	PullAttempts   = 10
	PullRetryDelay = 3 * time.Second
	RestartDelay   = time.Second
)

const DockerBinary = "docker"

// Runtime backends
const (
	RuntimeAPI = "api"
	RuntimeCLI = "cli"
)
