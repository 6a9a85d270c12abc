//go:build !windows && !nacl && !plan9

package log

import (
	"log/syslog"

	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// AddSyslogHook mirrors every entry of logger to syslog under the LOCAL3
// facility. Empty network and address select the local syslog daemon.
func AddSyslogHook(logger *logrus.Logger, network, address, tag string) error {
	hook, err := lsyslog.NewSyslogHook(network, address, syslog.LOG_LOCAL3|syslog.LOG_INFO, tag)
	if err != nil {
		return gerrors.Wrap(err)
	}
	logger.AddHook(hook)
	return nil
}
