package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recipenav/recipenav/internal/models"
)

var errNotLoggedIn = errors.New("not logged in; run `recipenav login` first")

// draftFlags collects the recipe fields shared by add and edit.
type draftFlags struct {
	Title       string
	Description string
	Category    string
	Ingredients []string
	Image       string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Title, "title", "", "recipe title")
	cmd.Flags().StringVar(&f.Description, "description", "", "recipe description")
	cmd.Flags().StringVar(&f.Category, "category", "", "recipe category")
	cmd.Flags().StringArrayVar(&f.Ingredients, "ingredient", nil, "ingredient (repeatable)")
	cmd.Flags().StringVar(&f.Image, "image", "", "path to an image file")
}

func (f *draftFlags) draft() models.RecipeDraft {
	draft := models.RecipeDraft{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Ingredients: f.Ingredients,
	}
	if f.Image != "" {
		draft.ImageName = filepath.Base(f.Image)
	}
	return draft
}

// openImage returns a reader for the image flag, or nil when unset.
func (f *draftFlags) openImage() (io.ReadCloser, error) {
	if f.Image == "" {
		return nil, nil
	}
	file, err := os.Open(f.Image)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return file, nil
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &draftFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe to the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(rootOpts)
			if err != nil {
				return err
			}

			image, err := flags.openImage()
			if err != nil {
				return err
			}
			if image != nil {
				defer image.Close()
			}

			created, err := env.pipeline.Create(cmd.Context(), flags.draft(), image)
			if err != nil {
				return err
			}

			return printRecipe(cmd, rootOpts.Format, created)
		},
	}

	flags.register(cmd)
	return cmd
}

// NewEditCommand creates the edit command. Unset flags keep the current
// values on the server.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &draftFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your recipes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(rootOpts)
			if err != nil {
				return err
			}

			if err := env.pipeline.Refresh(cmd.Context()); err != nil {
				return err
			}

			image, err := flags.openImage()
			if err != nil {
				return err
			}
			if image != nil {
				defer image.Close()
			}

			updated, err := env.pipeline.Update(cmd.Context(), args[0], flags.draft(), image)
			if err != nil {
				return err
			}

			return printRecipe(cmd, rootOpts.Format, updated)
		},
	}

	flags.register(cmd)
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete one of your recipes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(rootOpts)
			if err != nil {
				return err
			}

			if err := env.pipeline.Refresh(cmd.Context()); err != nil {
				return err
			}

			if err := env.pipeline.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

// NewLikeCommand creates the like command.
func NewLikeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Toggle your like on a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(rootOpts)
			if err != nil {
				return err
			}

			if err := env.pipeline.Refresh(cmd.Context()); err != nil {
				return err
			}

			status, err := env.pipeline.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if status.LikedByUser {
				fmt.Fprintf(cmd.OutOrStdout(), "liked (%d likes)\n", status.Likes)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "unliked (%d likes)\n", status.Likes)
			}
			return nil
		},
	}
}
