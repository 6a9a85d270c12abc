package ports

import (
	"context"
	"net"
	"runtime"
	"strconv"
	"syscall"

	"github.com/dstackai/dstack/agent/internal/models"
	"golang.org/x/sys/unix"
)

// CheckHostPort reports whether p's host port can currently be bound on this
// host for p's protocol.
func CheckHostPort(ctx context.Context, p models.Port) (bool, error) {
	host := ":" + strconv.Itoa(p.HostPort)
	// force IPv4 to detect used ports
	// https://stackoverflow.com/a/51073906
	config := &net.ListenConfig{Control: reusePortControl}
	if p.Protocol == "/udp" {
		conn, err := config.ListenPacket(ctx, "udp4", host)
		if err != nil {
			return false, err
		}
		_ = conn.Close()
		return true, nil
	}
	server, err := config.Listen(ctx, "tcp4", host)
	if err != nil {
		return false, err
	}
	_ = server.Close()
	return true, nil
}

func reusePortControl(network, address string, conn syscall.RawConn) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return conn.Control(func(descriptor uintptr) {
		_ = unix.SetsockoptInt(int(descriptor), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
}
