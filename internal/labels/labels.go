package labels

import (
	"github.com/dstackai/dstack/agent/internal/models"
)

const (
	Agent     = "containervm.agent"
	Container = "containervm.container"
	Network   = "containervm.network"
)

func Combine(l ...map[string]string) map[string]string {
	c := make(map[string]string)
	for _, m := range l {
		if m != nil {
			for k, v := range m {
				c[k] = v
			}
		}
	}
	return c
}

func Main() map[string]string {
	return map[string]string{
		Agent: "true",
	}
}

// FromContainer names the manifest container and the namespace it joins.
func FromContainer(c *models.Container) map[string]string {
	l := map[string]string{
		Container: c.Name,
	}
	if c.NetworkFrom != "" {
		l[Network] = c.NetworkFrom
	}
	return l
}
