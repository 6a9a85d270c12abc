package manifest

import (
	"path"
	"strconv"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/dstackai/dstack/agent/internal/validation"
)

// VolumeSet is the set of declared volume names, in declaration order.
type VolumeSet struct {
	names []string
	index map[string]struct{}
}

func NewVolumeSet(names ...string) *VolumeSet {
	vs := &VolumeSet{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		vs.add(name)
	}
	return vs
}

func (vs *VolumeSet) add(name string) {
	vs.names = append(vs.names, name)
	vs.index[name] = struct{}{}
}

func (vs *VolumeSet) Has(name string) bool {
	_, ok := vs.index[name]
	return ok
}

func (vs *VolumeSet) Names() []string {
	return append([]string{}, vs.names...)
}

func (vs *VolumeSet) Len() int {
	return len(vs.names)
}

type Loader struct {
	volumesRoot string
}

type Option interface {
	apply(loader *Loader)
}

type funcLoaderOpt func(loader *Loader)

func (f funcLoaderOpt) apply(loader *Loader) {
	f(loader)
}

// WithVolumesRoot sets the host directory volumes are created under.
func WithVolumesRoot(dir string) Option {
	return funcLoaderOpt(func(loader *Loader) {
		loader.volumesRoot = dir
	})
}

func NewLoader(opts ...Option) *Loader {
	loader := &Loader{
		volumesRoot: consts.VolumesRootDir,
	}
	for _, opt := range opts {
		opt.apply(loader)
	}
	return loader
}

// Load validates m section by section and returns the user containers in
// manifest order. It stops at the first violation.
func (l *Loader) Load(m *Manifest) ([]*models.Container, error) {
	if err := CheckVersion(m); err != nil {
		return nil, err
	}
	volumes, err := LoadVolumes(m.Volumes)
	if err != nil {
		return nil, err
	}
	return l.LoadContainers(m.Containers, volumes)
}

func CheckVersion(m *Manifest) error {
	if m.Version == nil {
		return newError(ErrVersion, "config has no version field")
	}
	for _, v := range consts.SupportedManifestVersions {
		if *m.Version == v {
			return nil
		}
	}
	return newError(ErrVersion, "config version '%s' is not supported", *m.Version)
}

// LoadVolumes processes the "volumes" section.
func LoadVolumes(specs []VolumeSpec) (*VolumeSet, error) {
	volumes := NewVolumeSet()
	for idx, spec := range specs {
		if spec.Name == nil {
			return nil, newError(ErrSchema, "volumes[%d] has no name", idx)
		}
		name := *spec.Name
		if !validation.IsRFC1035Name(name) {
			return nil, newError(ErrFormat, "volumes[%d].name is invalid: %s", idx, name)
		}
		if volumes.Has(name) {
			return nil, newError(ErrUniqueness, "volumes[%d].name is not unique: %s", idx, name)
		}
		volumes.add(name)
	}
	return volumes, nil
}

// LoadContainers processes the "containers" section. Every container joins
// the namespace holder's network.
func (l *Loader) LoadContainers(specs []ContainerSpec, volumes *VolumeSet) ([]*models.Container, error) {
	containers := make([]*models.Container, 0, len(specs))
	names := make(map[string]struct{}, len(specs))
	for idx, spec := range specs {
		if spec.Name == nil {
			return nil, newError(ErrSchema, "containers[%d] has no name", idx)
		}
		name := *spec.Name
		if !validation.IsRFC1035Name(name) {
			return nil, newError(ErrFormat, "containers[%d].name is invalid: %s", idx, name)
		}
		if _, ok := names[name]; ok {
			return nil, newError(ErrUniqueness, "containers[%d].name is not unique: %s", idx, name)
		}
		names[name] = struct{}{}

		if spec.Image == nil || *spec.Image == "" {
			return nil, newError(ErrSchema, "containers[%s] has no image", name)
		}

		c := &models.Container{
			Name:     name,
			Image:    *spec.Image,
			Command:  spec.Command,
			Hostname: name,
		}

		if spec.WorkingDir != nil {
			if !validation.IsValidPath(*spec.WorkingDir) {
				return nil, newError(ErrFormat, "containers[%s].workingDir is invalid: %s", name, *spec.WorkingDir)
			}
			c.WorkingDir = *spec.WorkingDir
		}

		var err error
		if c.Ports, err = loadPorts(spec.Ports, name); err != nil {
			return nil, err
		}
		if c.Mounts, err = l.loadVolumeMounts(spec.VolumeMounts, volumes, name); err != nil {
			return nil, err
		}
		if c.Env, err = loadEnvVars(spec.Env, name); err != nil {
			return nil, err
		}

		c.NetworkFrom = consts.NetContainerName
		containers = append(containers, c)
	}
	return containers, nil
}

// loadPorts processes a container's "ports" section. Host ports are unique
// by number within a container, whatever their protocol.
func loadPorts(specs []PortSpec, ctrName string) ([]models.Port, error) {
	ports := make([]models.Port, 0, len(specs))
	names := make(map[string]struct{}, len(specs))
	hostPorts := make(map[int]struct{}, len(specs))
	for idx, spec := range specs {
		portName := strconv.Itoa(idx)
		if spec.Name != nil {
			portName = *spec.Name
			if !validation.IsRFC1035Name(portName) {
				return nil, newError(ErrFormat, "containers[%s].ports[%d].name is invalid: %s", ctrName, idx, portName)
			}
			if _, ok := names[portName]; ok {
				return nil, newError(ErrUniqueness, "containers[%s].ports[%d].name is not unique: %s", ctrName, idx, portName)
			}
			names[portName] = struct{}{}
		}

		if spec.ContainerPort == nil {
			return nil, newError(ErrSchema, "containers[%s].ports[%s] has no containerPort", ctrName, portName)
		}
		ctrPort := *spec.ContainerPort
		if !validation.IsValidPort(ctrPort) {
			return nil, newError(ErrFormat, "containers[%s].ports[%s].containerPort is invalid: %d", ctrName, portName, ctrPort)
		}

		hostPort := ctrPort
		if spec.HostPort != nil {
			hostPort = *spec.HostPort
		}
		if !validation.IsValidPort(hostPort) {
			return nil, newError(ErrFormat, "containers[%s].ports[%s].hostPort is invalid: %d", ctrName, portName, hostPort)
		}
		if _, ok := hostPorts[hostPort]; ok {
			return nil, newError(ErrUniqueness, "containers[%s].ports[%s].hostPort is not unique: %d", ctrName, portName, hostPort)
		}
		hostPorts[hostPort] = struct{}{}

		proto := validation.ProtocolTCP
		if spec.Protocol != nil {
			proto = *spec.Protocol
		}
		if !validation.IsValidProtocol(proto) {
			return nil, newError(ErrFormat, "containers[%s].ports[%s].protocol is invalid: %s", ctrName, portName, proto)
		}

		ports = append(ports, models.Port{
			HostPort:      hostPort,
			ContainerPort: ctrPort,
			Protocol:      validation.ProtocolSuffix(proto),
		})
	}
	return ports, nil
}

// loadVolumeMounts turns a container's "volumeMounts" section into bind
// directives of the form <root>/<volume>:<path>:<rw|ro>.
func (l *Loader) loadVolumeMounts(specs []VolumeMountSpec, volumes *VolumeSet, ctrName string) ([]string, error) {
	mounts := make([]string, 0, len(specs))
	for idx, spec := range specs {
		if spec.Name == nil {
			return nil, newError(ErrSchema, "containers[%s].volumeMounts[%d] has no name", ctrName, idx)
		}
		volName := *spec.Name
		if !validation.IsRFC1035Name(volName) {
			return nil, newError(ErrFormat, "containers[%s].volumeMounts[%d].name is invalid: %s", ctrName, idx, volName)
		}
		if !volumes.Has(volName) {
			return nil, newError(ErrReference, "containers[%s].volumeMounts[%d].name is not a known volume: %s", ctrName, idx, volName)
		}

		if spec.Path == nil {
			return nil, newError(ErrSchema, "containers[%s].volumeMounts[%s] has no path", ctrName, volName)
		}
		volPath := *spec.Path
		if !validation.IsValidPath(volPath) {
			return nil, newError(ErrFormat, "containers[%s].volumeMounts[%s].path is invalid: %s", ctrName, volName, volPath)
		}

		mode := "rw"
		if spec.ReadOnly != nil && *spec.ReadOnly {
			mode = "ro"
		}
		mounts = append(mounts, path.Join(l.volumesRoot, volName)+":"+volPath+":"+mode)
	}
	return mounts, nil
}

// loadEnvVars processes a container's "env" section. Values are taken
// verbatim and repeated keys are kept in order.
func loadEnvVars(specs []EnvSpec, ctrName string) ([]string, error) {
	env := make([]string, 0, len(specs))
	for idx, spec := range specs {
		if spec.Key == nil {
			return nil, newError(ErrSchema, "containers[%s].env[%d] has no key", ctrName, idx)
		}
		key := *spec.Key
		if !validation.IsCToken(key) {
			return nil, newError(ErrFormat, "containers[%s].env[%d].key is invalid: %s", ctrName, idx, key)
		}
		if spec.Value == nil {
			return nil, newError(ErrSchema, "containers[%s].env[%s] has no value", ctrName, key)
		}
		env = append(env, key+"="+*spec.Value)
	}
	return env, nil
}
