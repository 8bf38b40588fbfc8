package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/view"
)

func printPage(cmd *cobra.Command, format string, page view.Page) error {
	if format == "json" {
		return printJSON(cmd, page)
	}

	out := cmd.OutOrStdout()
	if page.Total == 0 {
		fmt.Fprintln(out, "no recipes found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAUTHOR\tLIKES")
	for _, r := range page.Records {
		liked := ""
		if r.LikedByUser {
			liked = " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%s\n", r.ID, r.Title, r.Category, r.Author, r.Likes, liked)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "page %d of %d (%d recipes)\n", page.Number, page.TotalPages, page.Total)
	return nil
}

func printRecipe(cmd *cobra.Command, format string, recipe models.Recipe) error {
	if format == "json" {
		return printJSON(cmd, recipe)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:          %s\n", recipe.ID)
	fmt.Fprintf(out, "title:       %s\n", recipe.Title)
	fmt.Fprintf(out, "category:    %s\n", recipe.Category)
	fmt.Fprintf(out, "author:      %s\n", recipe.Author)
	fmt.Fprintf(out, "likes:       %d\n", recipe.Likes)
	if recipe.Description != "" {
		fmt.Fprintf(out, "description: %s\n", recipe.Description)
	}
	if len(recipe.Ingredients) > 0 {
		fmt.Fprintf(out, "ingredients: %s\n", strings.Join(recipe.Ingredients, ", "))
	}
	if recipe.Image != "" {
		fmt.Fprintf(out, "image:       %s\n", recipe.Image)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
