// Package group turns the loaded user containers into a launchable group
// sharing one network namespace.
package group

import (
	"errors"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/manifest"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/dstackai/dstack/agent/internal/ports"
)

// NetContainer returns the namespace holder with no ports of its own.
func NetContainer() *models.Container {
	return &models.Container{
		Name:    consts.NetContainerName,
		Image:   consts.NetContainerImage,
		Command: append([]string{}, consts.NetContainerCommand...),
	}
}

// Resolve synthesizes the namespace holder, moves every user port onto it
// and checks group-wide port uniqueness. Publishing flags only work on the
// namespace owner, so user containers end up with no ports.
// An empty user list resolves to an empty group.
func Resolve(users []*models.Container) (models.Group, error) {
	if len(users) == 0 {
		return nil, nil
	}

	net := NetContainer()
	for _, c := range users {
		net.Ports = append(net.Ports, c.Ports...)
		c.Ports = []models.Port{}
		c.NetworkFrom = net.Name
	}

	if err := ports.CheckUnique(net.Ports); err != nil {
		var conflict ports.ConflictError
		if errors.As(err, &conflict) {
			return nil, &manifest.Error{Kind: manifest.ErrUniqueness, Msg: conflict.Error()}
		}
		return nil, err
	}

	group := make(models.Group, 0, len(users)+1)
	group = append(group, net)
	return append(group, users...), nil
}
