package models

import (
	"fmt"
	"strings"
)

// Port publishes ContainerPort on HostPort. Protocol is the port spec suffix:
// empty for TCP, "/udp" for UDP.
type Port struct {
	HostPort      int    `yaml:"hostPort"`
	ContainerPort int    `yaml:"containerPort"`
	Protocol      string `yaml:"protocol,omitempty"`
}

// String renders the port as hostport:containerport[/udp].
func (p Port) String() string {
	return fmt.Sprintf("%d:%d%s", p.HostPort, p.ContainerPort, p.Protocol)
}

// Container is a fully resolved container to be realized on the runtime.
type Container struct {
	Name        string   `yaml:"name"`
	Image       string   `yaml:"image"`
	Command     []string `yaml:"command,omitempty"`
	Hostname    string   `yaml:"hostname,omitempty"`
	WorkingDir  string   `yaml:"workingDir,omitempty"`
	Ports       []Port   `yaml:"ports,omitempty"`
	Mounts      []string `yaml:"mounts,omitempty"`
	Env         []string `yaml:"env,omitempty"`
	NetworkFrom string   `yaml:"networkFrom,omitempty"`
}

// NetworkMode returns the runtime network mode joining NetworkFrom's
// namespace, or an empty string if the container owns its namespace.
func (c *Container) NetworkMode() string {
	if c.NetworkFrom == "" {
		return ""
	}
	return "container:" + c.NetworkFrom
}

// PortSpecs renders every port binding.
func (c *Container) PortSpecs() []string {
	specs := make([]string, 0, len(c.Ports))
	for _, p := range c.Ports {
		specs = append(specs, p.String())
	}
	return specs
}

func (c *Container) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(" (")
	sb.WriteString(c.Image)
	sb.WriteString(")")
	return sb.String()
}

// Group is the ordered set of containers launched together: the namespace
// holder first, then user containers in manifest order.
type Group []*Container

// Names lists container names in launch order.
func (g Group) Names() []string {
	names := make([]string, 0, len(g))
	for _, c := range g {
		names = append(names, c.Name)
	}
	return names
}
