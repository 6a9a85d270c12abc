package agent

import (
	"context"
	"io"

	"github.com/dstackai/dstack/agent/internal/group"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/dstackai/dstack/agent/internal/manifest"
	"github.com/dstackai/dstack/agent/internal/models"
)

// LoadGroup decodes and validates a manifest and resolves it into a group.
// The result only depends on the document, so loading the same manifest
// twice yields equal groups.
func LoadGroup(ctx context.Context, r io.Reader, args *CLIArgs) (models.Group, error) {
	m, err := manifest.Decode(r, args.Manifest.Strict)
	if err != nil {
		return nil, err
	}
	users, err := args.Loader().Load(m)
	if err != nil {
		return nil, err
	}
	g, err := group.Resolve(users)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "manifest resolved", "containers", g.Names())
	return g, nil
}

// Run loads the manifest, launches the group and blocks while any of its
// containers is supervised.
func Run(ctx context.Context, args *CLIArgs, runtime Runtime) error {
	r, err := args.OpenManifest()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	log.Info(ctx, "processing container manifest", "path", args.Manifest.Path)
	g, err := LoadGroup(ctx, r, args)
	if err != nil {
		return err
	}
	if len(g) == 0 {
		log.Info(ctx, "manifest has no containers, nothing to run")
		return nil
	}

	driver := NewDriver(runtime, args.DriverOptions()...)
	if err := driver.Launch(ctx, g); err != nil {
		return err
	}
	log.Info(ctx, "all containers started", "containers", g.Names())
	return driver.Wait()
}
