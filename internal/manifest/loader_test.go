package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeSpecs[T any](t *testing.T, code string) []T {
	t.Helper()
	var specs []T
	require.NoError(t, yaml.Unmarshal([]byte(code), &specs))
	return specs
}

func loadContainers(t *testing.T, code string, volumes ...string) ([]*models.Container, error) {
	t.Helper()
	return NewLoader().LoadContainers(decodeSpecs[ContainerSpec](t, code), NewVolumeSet(volumes...))
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	assert.Equal(t, msg, err.Error())
}

func TestCheckVersion_Known(t *testing.T) {
	m, err := Decode(strings.NewReader("version: v1beta1"), false)
	require.NoError(t, err)
	assert.NoError(t, CheckVersion(m))
}

func TestCheckVersion_Missing(t *testing.T) {
	m, err := Decode(strings.NewReader("not_version: not valid"), false)
	require.NoError(t, err)
	requireKind(t, CheckVersion(m), ErrVersion, "config has no version field")
}

func TestCheckVersion_Unknown(t *testing.T) {
	m, err := Decode(strings.NewReader("version: not valid"), false)
	require.NoError(t, err)
	requireKind(t, CheckVersion(m), ErrVersion, "config version 'not valid' is not supported")
}

func TestVolumes_Valid(t *testing.T) {
	volumes, err := LoadVolumes(decodeSpecs[VolumeSpec](t, `
- name: abc
- name: abc-123
- name: a
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "abc-123", "a"}, volumes.Names())
	assert.True(t, volumes.Has("abc-123"))
	assert.False(t, volumes.Has("abc-124"))
}

func TestVolumes_NoName(t *testing.T) {
	_, err := LoadVolumes(decodeSpecs[VolumeSpec](t, "- notname: notgood"))
	requireKind(t, err, ErrSchema, "volumes[0] has no name")
}

func TestVolumes_InvalidName(t *testing.T) {
	_, err := LoadVolumes(decodeSpecs[VolumeSpec](t, "- name: 123abc"))
	requireKind(t, err, ErrFormat, "volumes[0].name is invalid: 123abc")
}

func TestVolumes_DupName(t *testing.T) {
	_, err := LoadVolumes(decodeSpecs[VolumeSpec](t, `
- name: abc123
- name: abc123
`))
	requireKind(t, err, ErrUniqueness, "volumes[1].name is not unique: abc123")
}

func TestContainers_ValidMinimal(t *testing.T) {
	containers, err := loadContainers(t, `
- name: abc123
  image: foo/bar
- name: abc124
  image: foo/bar
`)
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "abc123", containers[0].Name)
	assert.Equal(t, "abc124", containers[1].Name)
	assert.Equal(t, "abc123", containers[0].Hostname)
	assert.Equal(t, consts.NetContainerName, containers[0].NetworkFrom)
}

const fullYAML = `
- name: abc123
  image: foo/bar
  command:
    - one
    - two
  workingDir: /tmp
  ports:
    - name: port1
      hostPort: 111
      containerPort: 2222
      protocol: UDP
  volumeMounts:
    - name: vol1
      path: /mnt
      readOnly: true
  env:
    - key: KEY
      value: value str
`

const fullJSON = `[
  {
    "name": "abc123",
    "image": "foo/bar",
    "command": ["one", "two"],
    "workingDir": "/tmp",
    "ports": [
      {"name": "port1", "hostPort": 111, "containerPort": 2222, "protocol": "UDP"}
    ],
    "volumeMounts": [
      {"name": "vol1", "path": "/mnt", "readOnly": true}
    ],
    "env": [
      {"key": "KEY", "value": "value str"}
    ]
  }
]`

func TestContainers_ValidFull(t *testing.T) {
	for _, code := range []string{fullYAML, fullJSON} {
		containers, err := loadContainers(t, code, "vol1")
		require.NoError(t, err)
		require.Len(t, containers, 1)
		c := containers[0]
		assert.Equal(t, "abc123", c.Name)
		assert.Equal(t, "foo/bar", c.Image)
		assert.Equal(t, []string{"one", "two"}, c.Command)
		assert.Equal(t, "/tmp", c.WorkingDir)
		assert.Equal(t, []models.Port{{HostPort: 111, ContainerPort: 2222, Protocol: "/udp"}}, c.Ports)
		assert.Equal(t, []string{"/export/vol1:/mnt:ro"}, c.Mounts)
		assert.Equal(t, []string{"KEY=value str"}, c.Env)
	}
}

func TestContainers_NoName(t *testing.T) {
	_, err := loadContainers(t, "- image: foo/bar")
	requireKind(t, err, ErrSchema, "containers[0] has no name")
}

func TestContainers_InvalidName(t *testing.T) {
	_, err := loadContainers(t, `
- name: 123abc
  image: foo/bar
`)
	requireKind(t, err, ErrFormat, "containers[0].name is invalid: 123abc")
}

func TestContainers_DupName(t *testing.T) {
	_, err := loadContainers(t, `
- name: abc123
  image: foo/bar
- name: abc123
  image: foo/bar
`)
	requireKind(t, err, ErrUniqueness, "containers[1].name is not unique: abc123")
}

func TestContainers_NoImage(t *testing.T) {
	_, err := loadContainers(t, "- name: abc123")
	requireKind(t, err, ErrSchema, "containers[abc123] has no image")
}

func TestContainers_EmptyImage(t *testing.T) {
	_, err := loadContainers(t, `
- name: abc123
  image: ""
`)
	requireKind(t, err, ErrSchema, "containers[abc123] has no image")
}

func TestContainers_FirstFailureWins(t *testing.T) {
	_, err := loadContainers(t, `
- name: abc123
  image: foo/bar
  workingDir: relative
- name: BAD
  image: foo/bar
`)
	requireKind(t, err, ErrFormat, "containers[abc123].workingDir is invalid: relative")
}

func TestContainers_Command(t *testing.T) {
	containers, err := loadContainers(t, `
- name: abc123
  image: foo/bar
- name: abc124
  image: foo/bar
  command: [sh, -c, "exit 1"]
`)
	require.NoError(t, err)
	assert.Empty(t, containers[0].Command)
	assert.Equal(t, []string{"sh", "-c", "exit 1"}, containers[1].Command)
}

func TestContainers_WorkingDir(t *testing.T) {
	containers, err := loadContainers(t, `
- name: abc123
  image: foo/bar
- name: abc124
  image: foo/bar
  workingDir: /foo/bar
`)
	require.NoError(t, err)
	assert.Equal(t, "", containers[0].WorkingDir)
	assert.Equal(t, "/foo/bar", containers[1].WorkingDir)
}

func TestContainers_WithoutPortsMountsEnv(t *testing.T) {
	containers, err := loadContainers(t, `
- name: abc123
  image: foo/bar
`)
	require.NoError(t, err)
	assert.Empty(t, containers[0].Ports)
	assert.Empty(t, containers[0].Mounts)
	assert.Empty(t, containers[0].Env)
}

func TestPorts_ValidMinimal(t *testing.T) {
	ports, err := loadPorts(decodeSpecs[PortSpec](t, `
- containerPort: 1
- containerPort: 65535
`), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []models.Port{
		{HostPort: 1, ContainerPort: 1},
		{HostPort: 65535, ContainerPort: 65535},
	}, ports)
}

func TestPorts_WithName(t *testing.T) {
	ports, err := loadPorts(decodeSpecs[PortSpec](t, `
- name: abc123
  containerPort: 123
`), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []models.Port{{HostPort: 123, ContainerPort: 123}}, ports)
}

func TestPorts_Errors(t *testing.T) {
	cases := []struct {
		code string
		kind error
		msg  string
	}{
		{"- name: 123abc\n  containerPort: 123", ErrFormat, "containers[ctr-name].ports[0].name is invalid: 123abc"},
		{"- name: abc123\n  containerPort: 123\n- name: abc123\n  containerPort: 124", ErrUniqueness, "containers[ctr-name].ports[1].name is not unique: abc123"},
		{"- name: abc123", ErrSchema, "containers[ctr-name].ports[abc123] has no containerPort"},
		{"- hostPort: 80", ErrSchema, "containers[ctr-name].ports[0] has no containerPort"},
		{"- containerPort: 0", ErrFormat, "containers[ctr-name].ports[0].containerPort is invalid: 0"},
		{"- containerPort: 65536", ErrFormat, "containers[ctr-name].ports[0].containerPort is invalid: 65536"},
		{"- containerPort: 123\n  hostPort: 0", ErrFormat, "containers[ctr-name].ports[0].hostPort is invalid: 0"},
		{"- containerPort: 123\n- containerPort: 124\n  hostPort: 70000", ErrFormat, "containers[ctr-name].ports[1].hostPort is invalid: 70000"},
		{"- containerPort: 123\n  hostPort: 123\n- containerPort: 124\n  hostPort: 123", ErrUniqueness, "containers[ctr-name].ports[1].hostPort is not unique: 123"},
		{"- containerPort: 123\n  protocol: tcp", ErrFormat, "containers[ctr-name].ports[0].protocol is invalid: tcp"},
	}
	for _, tc := range cases {
		_, err := loadPorts(decodeSpecs[PortSpec](t, tc.code), "ctr-name")
		requireKind(t, err, tc.kind, tc.msg)
	}
}

func TestPorts_DupHostPortAcrossProtocols(t *testing.T) {
	_, err := loadPorts(decodeSpecs[PortSpec](t, `
- containerPort: 53
- containerPort: 53
  protocol: UDP
`), "dns")
	requireKind(t, err, ErrUniqueness, "containers[dns].ports[1].hostPort is not unique: 53")
}

func TestPorts_WithHostPort(t *testing.T) {
	ports, err := loadPorts(decodeSpecs[PortSpec](t, `
- containerPort: 123
  hostPort: 456
`), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []models.Port{{HostPort: 456, ContainerPort: 123}}, ports)
}

func TestPorts_Protocol(t *testing.T) {
	ports, err := loadPorts(decodeSpecs[PortSpec](t, `
- containerPort: 123
  protocol: TCP
- containerPort: 124
  protocol: UDP
`), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []models.Port{
		{HostPort: 123, ContainerPort: 123},
		{HostPort: 124, ContainerPort: 124, Protocol: "/udp"},
	}, ports)
}

func TestMounts_ValidMinimal(t *testing.T) {
	mounts, err := NewLoader().loadVolumeMounts(decodeSpecs[VolumeMountSpec](t, `
- name: vol1
  path: /mnt/vol1
- name: vol2
  path: /mnt/vol2
`), NewVolumeSet("vol1", "vol2"), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []string{"/export/vol1:/mnt/vol1:rw", "/export/vol2:/mnt/vol2:rw"}, mounts)
}

func TestMounts_ReadOnly(t *testing.T) {
	mounts, err := NewLoader().loadVolumeMounts(decodeSpecs[VolumeMountSpec](t, `
- name: vol1
  path: /mnt
- name: vol1
  path: /mnt2
  readOnly: true
- name: vol1
  path: /mnt3
  readOnly: false
`), NewVolumeSet("vol1"), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []string{"/export/vol1:/mnt:rw", "/export/vol1:/mnt2:ro", "/export/vol1:/mnt3:rw"}, mounts)
}

func TestMounts_VolumesRoot(t *testing.T) {
	loader := NewLoader(WithVolumesRoot("/var/lib/volumes/"))
	mounts, err := loader.loadVolumeMounts(decodeSpecs[VolumeMountSpec](t, `
- name: vol1
  path: /mnt
`), NewVolumeSet("vol1"), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []string{"/var/lib/volumes/vol1:/mnt:rw"}, mounts)
}

func TestMounts_Errors(t *testing.T) {
	cases := []struct {
		code string
		kind error
		msg  string
	}{
		{"- path: /mnt", ErrSchema, "containers[ctr-name].volumeMounts[0] has no name"},
		{"- name: 1vol\n  path: /mnt", ErrFormat, "containers[ctr-name].volumeMounts[0].name is invalid: 1vol"},
		{"- name: vol2\n  path: /mnt", ErrReference, "containers[ctr-name].volumeMounts[0].name is not a known volume: vol2"},
		{"- name: vol1", ErrSchema, "containers[ctr-name].volumeMounts[vol1] has no path"},
		{"- name: vol1\n  path: mnt", ErrFormat, "containers[ctr-name].volumeMounts[vol1].path is invalid: mnt"},
	}
	for _, tc := range cases {
		_, err := NewLoader().loadVolumeMounts(decodeSpecs[VolumeMountSpec](t, tc.code), NewVolumeSet("vol1"), "ctr-name")
		requireKind(t, err, tc.kind, tc.msg)
	}
}

func TestEnv_Valid(t *testing.T) {
	env, err := loadEnvVars(decodeSpecs[EnvSpec](t, `
- key: KEY
  value: value str
- key: _under_score
  value: "  spaced  "
- key: KEY
  value: 42
`), "ctr-name")
	require.NoError(t, err)
	assert.Equal(t, []string{"KEY=value str", "_under_score=  spaced  ", "KEY=42"}, env)
}

func TestEnv_Errors(t *testing.T) {
	cases := []struct {
		code string
		kind error
		msg  string
	}{
		{"- value: v", ErrSchema, "containers[ctr-name].env[0] has no key"},
		{"- key: 1KEY\n  value: v", ErrFormat, "containers[ctr-name].env[0].key is invalid: 1KEY"},
		{"- key: KEY-1\n  value: v", ErrFormat, "containers[ctr-name].env[0].key is invalid: KEY-1"},
		{"- key: KEY", ErrSchema, "containers[ctr-name].env[KEY] has no value"},
	}
	for _, tc := range cases {
		_, err := loadEnvVars(decodeSpecs[EnvSpec](t, tc.code), "ctr-name")
		requireKind(t, err, tc.kind, tc.msg)
	}
}

func TestLoad_Sections(t *testing.T) {
	m, err := Decode(strings.NewReader(`
version: v1beta1
volumes:
  - name: data
containers:
  - name: web
    image: nginx
    ports:
      - containerPort: 80
        hostPort: 8080
    volumeMounts:
      - name: data
        path: /usr/share/nginx/html
        readOnly: true
`), true)
	require.NoError(t, err)
	containers, err := NewLoader().Load(m)
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, []string{"/export/data:/usr/share/nginx/html:ro"}, containers[0].Mounts)
	assert.Equal(t, []models.Port{{HostPort: 8080, ContainerPort: 80}}, containers[0].Ports)
}

func TestLoad_ForwardVolumeReference(t *testing.T) {
	m, err := Decode(strings.NewReader(`
version: v1beta1
containers:
  - name: web
    image: nginx
    volumeMounts:
      - name: data
        path: /data
`), false)
	require.NoError(t, err)
	_, err = NewLoader().Load(m)
	requireKind(t, err, ErrReference, "containers[web].volumeMounts[0].name is not a known volume: data")
}

func TestDecode_Empty(t *testing.T) {
	m, err := Decode(strings.NewReader(""), false)
	require.NoError(t, err)
	requireKind(t, CheckVersion(m), ErrVersion, "config has no version field")
}

func TestDecode_WrongType(t *testing.T) {
	_, err := Decode(strings.NewReader(`
version: v1beta1
containers:
  - name: web
    image: nginx
    ports:
      - containerPort: http
`), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "manifest is malformed")
}

func TestDecode_Strict(t *testing.T) {
	code := `
version: v1beta1
containers:
  - name: web
    image: nginx
    restartPolicy: always
`
	_, err := Decode(strings.NewReader(code), false)
	require.NoError(t, err)
	_, err = Decode(strings.NewReader(code), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}
