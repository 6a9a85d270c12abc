package labels

import (
	"testing"

	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "2", "b": "1"},
		Combine(map[string]string{"a": "1", "b": "1"}, nil, map[string]string{"a": "2"}))
}

func TestFromContainer(t *testing.T) {
	assert.Equal(t, map[string]string{Container: "net_infra"},
		FromContainer(&models.Container{Name: "net_infra"}))
	assert.Equal(t, map[string]string{
		Agent:     "true",
		Container: "web",
		Network:   "net_infra",
	}, Combine(Main(), FromContainer(&models.Container{Name: "web", NetworkFrom: "net_infra"})))
}
