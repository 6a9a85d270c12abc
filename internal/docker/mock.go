package docker

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/mock"
)

var _ Client = (*MockClient)(nil)

type MockClient struct {
	mock.Mock
}

func (mock *MockClient) ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error) {
	ret := mock.Called(ctx, ref, options)

	var r0 io.ReadCloser
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(io.ReadCloser)
	}
	return r0, ret.Error(1)
}

func (mock *MockClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *v1.Platform, containerName string) (container.ContainerCreateCreatedBody, error) {
	ret := mock.Called(ctx, config, hostConfig, networkingConfig, platform, containerName)
	return ret.Get(0).(container.ContainerCreateCreatedBody), ret.Error(1)
}

func (mock *MockClient) ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error {
	ret := mock.Called(ctx, containerID, options)
	return ret.Error(0)
}

func (mock *MockClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.ContainerWaitOKBody, <-chan error) {
	ret := mock.Called(ctx, containerID, condition)

	var r0 <-chan container.ContainerWaitOKBody
	if rf, ok := ret.Get(0).(func() <-chan container.ContainerWaitOKBody); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(<-chan container.ContainerWaitOKBody)
	}

	var r1 <-chan error
	if rf, ok := ret.Get(1).(func() <-chan error); ok {
		r1 = rf()
	} else if ret.Get(1) != nil {
		r1 = ret.Get(1).(<-chan error)
	}
	return r0, r1
}

func (mock *MockClient) ContainerRestart(ctx context.Context, containerID string, timeout *time.Duration) error {
	ret := mock.Called(ctx, containerID, timeout)
	return ret.Error(0)
}

func (mock *MockClient) ContainerKill(ctx context.Context, containerID, signal string) error {
	ret := mock.Called(ctx, containerID, signal)
	return ret.Error(0)
}

func (mock *MockClient) ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error {
	ret := mock.Called(ctx, containerID, options)
	return ret.Error(0)
}

func (mock *MockClient) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	ret := mock.Called(ctx, containerID)
	return ret.Get(0).(types.ContainerJSON), ret.Error(1)
}
