package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"roomwalk/config"
	"roomwalk/pkg/logger"
	"roomwalk/renderer"
	"roomwalk/viewer"
	"roomwalk/window"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		config.PrintUsage(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "roomwalk: %v\n", err)
		config.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.For("main")
	log.WithField("model", cfg.ModelPath).Info("Starting roomwalk...")

	winCfg := window.DefaultConfig()
	winCfg.Width = cfg.Width
	winCfg.Height = cfg.Height
	winCfg.Title = cfg.Title
	winCfg.VSync = cfg.VSync
	winCfg.Fullscreen = cfg.Fullscreen
	winCfg.Samples = cfg.Samples

	win, err := window.New(winCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create window")
	}
	defer win.Destroy()

	engine, err := renderer.NewRenderEngine(win.GetFramebufferSize())
	if err != nil {
		// unsupported graphics context is fatal: nothing can be shown
		win.Destroy()
		log.WithError(err).Fatal("Failed to create render engine")
	}
	defer engine.Destroy()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := viewer.New(ctx, cfg, win, engine, win)
	v.OnStatus = func(s viewer.Status) {
		win.SetTitle(s.Title(cfg.Title))
		stats := engine.Stats()
		log.WithFields(logrus.Fields{
			"fps":       s.FPS,
			"objects":   stats.Objects,
			"triangles": stats.Triangles,
			"culled":    stats.Culled,
		}).Debug("frame stats")
	}

	win.OnKey = v.HandleKey
	win.OnClick = v.HandleClick
	win.OnMouseMove = v.HandleMouseMove
	win.OnFocus = v.HandleFocus
	win.OnResize = v.Resize
	win.OnPointerLock = v.HandleLockChange
	win.OnPointerLockError = v.HandleLockError

	// the framebuffer can differ from the requested size on HiDPI displays
	v.Resize(win.GetFramebufferSize())
	v.Start()

	if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("viewer stopped")
	}
	log.WithField("frames", v.Frames()).Info("Shutting down")
}
