package main

import (
	"context"
	"os"

	"github.com/4thel00z/memsync/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app := newApp()
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	resolver *internal.ScopeResolver
}

func newApp() *app {
	return &app{
		resolver: internal.NewScopeResolver(),
	}
}

// syncerFor wires a Syncer for one store: its config, the go-git client,
// and the cross-process lock manager.
func (a *app) syncerFor(store string) (*internal.Syncer, error) {
	scope := a.resolver.Resolve(store)

	cfg, err := internal.LoadConfig(scope)
	if err != nil {
		return nil, err
	}
	if cfg.Store != "" && store == "" {
		scope = a.resolver.Resolve(cfg.Store)
	}

	vcs := internal.NewGitClient(cfg.Author)
	locks := internal.NewLockManager(nil)

	return internal.NewSyncer(scope, cfg, vcs, locks, nil), nil
}
