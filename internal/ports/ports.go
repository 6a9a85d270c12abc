package ports

import (
	"fmt"
	"strconv"

	"github.com/docker/go-connections/nat"
	"github.com/dstackai/dstack/agent/internal/models"
)

// ConflictError reports a port claimed twice for the same protocol.
type ConflictError struct {
	// "host" or "container"
	Side string
	// port number with its protocol suffix, e.g. "53/udp"
	Port string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s port %s is not unique group-wide", e.Side, e.Port)
}

// Registry tracks the host and container ports claimed by a group. A port
// number may be claimed once per protocol on each side.
type Registry struct {
	hostPorts      map[string]struct{}
	containerPorts map[string]struct{}
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

func (r *Registry) Reset() {
	r.hostPorts = make(map[string]struct{})
	r.containerPorts = make(map[string]struct{})
}

// Register claims both sides of p. Nothing is claimed on conflict.
func (r *Registry) Register(p models.Port) error {
	h := strconv.Itoa(p.HostPort) + p.Protocol
	if _, ok := r.hostPorts[h]; ok {
		return ConflictError{Side: "host", Port: h}
	}
	c := strconv.Itoa(p.ContainerPort) + p.Protocol
	if _, ok := r.containerPorts[c]; ok {
		return ConflictError{Side: "container", Port: c}
	}
	r.hostPorts[h] = struct{}{}
	r.containerPorts[c] = struct{}{}
	return nil
}

// CheckUnique registers ports in order and returns the first conflict.
func CheckUnique(ports []models.Port) error {
	r := NewRegistry()
	for _, p := range ports {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func natPort(p models.Port) nat.Port {
	proto := "tcp"
	if p.Protocol == "/udp" {
		proto = "udp"
	}
	return nat.Port(fmt.Sprintf("%d/%s", p.ContainerPort, proto))
}

func ExposedPorts(ports []models.Port) nat.PortSet {
	resp := make(nat.PortSet)
	for _, p := range ports {
		resp[natPort(p)] = struct{}{}
	}
	return resp
}

// BindPorts publishes every container port on its host port on all
// interfaces.
func BindPorts(ports []models.Port) nat.PortMap {
	resp := make(nat.PortMap)
	for _, p := range ports {
		k := natPort(p)
		resp[k] = append(resp[k], nat.PortBinding{
			HostPort: strconv.Itoa(p.HostPort),
		})
	}
	return resp
}
