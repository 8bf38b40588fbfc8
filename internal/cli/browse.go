package cli

import (
	"github.com/spf13/cobra"

	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/view"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	Search   string
	Category string
	Sort     string
	Page     int
	Mine     bool
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List recipes from the collection",
		Long: `Fetch the collection and print one page of recipes.

Search matches against titles and descriptions, category narrows to a
single category, and sort orders by newest, oldest, or likes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(rootOpts)
			if err != nil {
				return err
			}

			var snapshot []models.Recipe
			if opts.Mine {
				session, ok := env.sessions.Current()
				if !ok {
					return errNotLoggedIn
				}
				snapshot, err = env.client.FetchMine(cmd.Context(), session.Token)
				if err != nil {
					return err
				}
			} else {
				if err := env.pipeline.Refresh(cmd.Context()); err != nil {
					return err
				}
				snapshot = env.store.Snapshot()
			}

			page := view.Project(snapshot, view.State{
				Search:   opts.Search,
				Category: opts.Category,
				Sort:     view.Sort(opts.Sort),
				Page:     opts.Page,
				PageSize: env.cfg.PageSize,
			})

			return printPage(cmd, opts.Format, page)
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "filter by title or description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&opts.Sort, "sort", "newest", "sort order (newest|oldest|likes)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().BoolVar(&opts.Mine, "mine", false, "only show your own recipes")

	return cmd
}
