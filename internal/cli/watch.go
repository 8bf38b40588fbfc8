package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recipenav/recipenav/internal/syncer"
	"github.com/recipenav/recipenav/internal/view"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Search   string
	Category string
	Sort     string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the collection as it changes",
		Long: `Load the collection, then poll the service and reprint the first
page whenever like counts change or recipes appear or disappear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "filter by title or description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&opts.Sort, "sort", "newest", "sort order (newest|oldest|likes)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	env, err := newEnv(opts.RootOptions)
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := env.pipeline.Refresh(ctx); err != nil {
		return err
	}

	state := view.State{
		Search:   opts.Search,
		Category: opts.Category,
		Sort:     view.Sort(opts.Sort),
		Page:     1,
		PageSize: env.cfg.PageSize,
	}

	render := func() {
		page := view.Project(env.store.Snapshot(), state)
		if err := printPage(cmd, opts.Format, page); err != nil {
			env.logger.Warn("render page", "error", err)
		}
	}

	render()
	unsubscribe := env.store.Subscribe(render)
	defer unsubscribe()

	fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl-C to stop")

	poller := syncer.NewPoller(env.store, env.client, env.sessions, env.cfg.PollInterval, env.logger)
	poller.Run(ctx)

	return nil
}
