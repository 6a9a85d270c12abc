//go:build windows || nacl || plan9

package log

import (
	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/sirupsen/logrus"
)

func AddSyslogHook(logger *logrus.Logger, network, address, tag string) error {
	return gerrors.New("syslog is not supported on this platform")
}
