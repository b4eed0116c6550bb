package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lightpivot"
	"github.com/aretw0/lightpivot/internal/presentation/tui"
	"github.com/aretw0/lightpivot/pkg/domain"
)

// RunOptions configures the interactive console.
type RunOptions struct {
	Options

	Input  io.Reader
	Output io.Writer
	Quiet  bool
	Width  int
}

// Execute runs the interactive console until quit, end of input or a signal.
func Execute(opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	err := run(sc, opts)
	if err == nil || !isInterrupted(err) || opts.Quiet {
		return handleExecutionError(err)
	}

	switch sc.Signal() {
	case os.Interrupt:
		fmt.Fprintln(opts.Output, "[CTRL+C]")
		PrintSystemMessage(opts.Output, "Interrupted.")
	case nil:
	default:
		fmt.Fprintln(opts.Output)
		PrintSystemMessage(opts.Output, "Terminated.")
	}
	return nil
}

func run(ctx context.Context, opts RunOptions) error {
	logger := CreateLogger(opts.Debug)

	cfg, err := LoadConfig(opts.Options)
	if err != nil {
		return err
	}

	viewOpts := []tui.Option{
		tui.FromConfig(cfg),
		tui.WithMessageRenderer(tui.NewRenderer(opts.Width)),
	}
	if opts.Width > 0 {
		viewOpts = append(viewOpts, tui.WithWidth(opts.Width))
	}
	view := tui.NewView(opts.Output, viewOpts...)
	view.UpdateSizes()

	if !opts.Quiet {
		tui.PrintBanner(opts.Output, lightpivot.Version)
	}

	var hooks domain.LifecycleHooks
	if opts.Debug {
		hooks = DebugHooks(logger)
	}

	table, closeTable, err := NewTable(ctx, cfg, opts.Options, logger,
		lightpivot.WithView(view),
		lightpivot.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeTable(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}()

	table.AttachTrigger("drillDown", func(e domain.DrillDownEvent) {
		if !opts.Quiet {
			PrintSystemMessage(opts.Output, "Drilled into %s (level %d).", e.Path, e.Level)
		}
	})

	console := lightpivot.NewConsole(table, NewInterruptibleReader(opts.Input, ctx.Done()), opts.Output)
	return console.Run(ctx)
}
