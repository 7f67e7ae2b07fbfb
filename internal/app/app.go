// Package app wires the pieces of the model engine into a runnable
// application: it configures logging, loads the model manifests, realizes
// the requested targets and prints a report of their final state.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/engine"
	"github.com/vk/modelgraph/internal/hclmodel"
)

// App is one configured application instance.
type App struct {
	outW io.Writer
	cfg  *Config
}

// NewApp creates an App writing its report to outW.
func NewApp(outW io.Writer, cfg *Config) *App {
	return &App{outW: outW, cfg: cfg}
}

// Run loads the manifests, realizes every target and writes one report
// line per target. Any rule violation aborts the run.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	eng := engine.New()
	loader := hclmodel.NewLoader()
	if err := loader.Load(ctx, a.cfg.ModelPath, eng); err != nil {
		return fmt.Errorf("failed to load model manifests: %w", err)
	}

	logger.Info("Realizing targets.", "targets", a.cfg.Targets)
	if err := eng.RunToCompletion(ctx, a.cfg.Targets...); err != nil {
		return err
	}

	for _, target := range a.cfg.Targets {
		line, err := renderTarget(ctx, eng, target)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.outW, line)
	}
	return nil
}
