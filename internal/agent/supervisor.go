package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/dstackai/dstack/agent/consts/states"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"
)

// Supervisor keeps one container alive: every time it exits it is restarted,
// until the runtime no longer knows about it.
//
//	pulling -> running <-> restarting -> terminated
type Supervisor struct {
	name         string
	id           *atomic.String
	runtime      Runtime
	restartDelay time.Duration

	state    *atomic.String
	restarts *atomic.Int64
}

func newSupervisor(name string, runtime Runtime, restartDelay time.Duration) *Supervisor {
	return &Supervisor{
		name:         name,
		runtime:      runtime,
		restartDelay: restartDelay,
		id:           atomic.NewString(""),
		state:        atomic.NewString(string(states.Pulling)),
		restarts:     atomic.NewInt64(0),
	}
}

func (s *Supervisor) Name() string {
	return s.name
}

// ID is the runtime id, empty until the container has started.
func (s *Supervisor) ID() string {
	return s.id.Load()
}

func (s *Supervisor) State() states.State {
	return states.State(s.state.Load())
}

// Restarts counts successful restart requests.
func (s *Supervisor) Restarts() int64 {
	return s.restarts.Load()
}

func (s *Supervisor) setState(state states.State) {
	s.state.Store(string(state))
}

// Run loops until the container is gone or ctx is done. A failed restart
// does not stop the loop: the next wait returns at once and the restart is
// tried again after the delay.
func (s *Supervisor) Run(ctx context.Context) {
	id := s.ID()
	ctx = log.AppendArgsCtx(ctx, "id", id)
	log.Info(ctx, fmt.Sprintf("keepalive for container '%s' running", s.name))
	defer s.setState(states.Terminated)

	startedAt := time.Now()
	for {
		status, err := s.runtime.Wait(ctx, id)
		if ctx.Err() != nil {
			log.Info(ctx, fmt.Sprintf("keepalive for container '%s' stopped", s.name))
			return
		}
		if err != nil {
			log.Error(ctx, fmt.Sprintf("failed to wait for container '%s'", s.name), "err", err)
		} else {
			log.Info(ctx, fmt.Sprintf("container '%s' exited with status %d", s.name, status),
				"started", humanize.Time(startedAt))
		}

		exists, err := s.runtime.Exists(ctx, id)
		if err != nil {
			log.Error(ctx, fmt.Sprintf("failed to inspect container '%s'", s.name), "err", err)
			if sleep(ctx, s.restartDelay) != nil {
				return
			}
			continue
		}
		if !exists {
			log.Info(ctx, fmt.Sprintf("container '%s' no longer exists: halting keepalive", s.name))
			return
		}

		s.setState(states.Restarting)
		if sleep(ctx, s.restartDelay) != nil {
			return
		}
		log.Info(ctx, fmt.Sprintf("container '%s' restarting", s.name))
		if err := s.runtime.Restart(ctx, id); err != nil {
			log.Error(ctx, fmt.Sprintf("failed to restart container '%s'", s.name), "err", err)
			continue
		}
		s.restarts.Inc()
		startedAt = time.Now()
		s.setState(states.Running)
	}
}
