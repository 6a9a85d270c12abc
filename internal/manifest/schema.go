package manifest

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// Manifest is the decoded, not yet validated, manifest document. Optional
// and required fields alike are pointers so that absence can be told apart
// from zero values; the loader decides what is required.
type Manifest struct {
	Version    *string         `yaml:"version"`
	Volumes    []VolumeSpec    `yaml:"volumes"`
	Containers []ContainerSpec `yaml:"containers"`
}

type VolumeSpec struct {
	Name *string `yaml:"name"`
}

type ContainerSpec struct {
	Name         *string           `yaml:"name"`
	Image        *string           `yaml:"image"`
	Command      []string          `yaml:"command"`
	WorkingDir   *string           `yaml:"workingDir"`
	Ports        []PortSpec        `yaml:"ports"`
	VolumeMounts []VolumeMountSpec `yaml:"volumeMounts"`
	Env          []EnvSpec         `yaml:"env"`
}

type PortSpec struct {
	Name          *string `yaml:"name"`
	ContainerPort *int    `yaml:"containerPort"`
	HostPort      *int    `yaml:"hostPort"`
	Protocol      *string `yaml:"protocol"`
}

type VolumeMountSpec struct {
	Name     *string `yaml:"name"`
	Path     *string `yaml:"path"`
	ReadOnly *bool   `yaml:"readOnly"`
}

type EnvSpec struct {
	Key   *string `yaml:"key"`
	Value *string `yaml:"value"`
}

// Decode reads a YAML or JSON manifest. In strict mode fields the schema does
// not know are rejected. An empty document decodes to an empty manifest.
func Decode(r io.Reader, strict bool) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(strict)

	m := &Manifest{}
	if err := dec.Decode(m); err != nil {
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		return nil, newError(ErrSchema, "manifest is malformed: %s", err)
	}
	return m, nil
}
