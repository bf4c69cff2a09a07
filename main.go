/*
vkframe runs the testbed: a spinning quad drawn by the Vulkan frame engine.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkframe/engine"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/testbed"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", engine.DefaultConfigPath, "path to the TOML configuration")
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("%s", err)
		return 1
	}

	tb := testbed.NewTestGame()
	e, err := engine.New(tb.Game, cfg)
	if err != nil {
		core.LogFatal("%s", err)
		return 1
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		if errors.Is(err, core.ErrWindowClosed) {
			return 0
		}
		core.LogFatal("initialize: %s", err)
		return 1
	}

	// capture sigterm and other system calls; the loop stops at the next frame
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Run(ctx); err != nil {
		core.LogFatal("%s", err)
		return 1
	}
	return 0
}
