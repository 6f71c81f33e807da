package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"cms-portal/internal/cms"

	"github.com/spf13/cobra"
)

func newArticlesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Browse and manage articles",
	}
	cmd.AddCommand(newArticlesListCmd(g))
	cmd.AddCommand(newArticlesGetCmd(g))
	cmd.AddCommand(newArticlesCreateCmd(g))
	cmd.AddCommand(newArticlesDeleteCmd(g))
	return cmd
}

func newArticlesListCmd(g *globals) *cobra.Command {
	var (
		p      cms.ListArticlesParams
		mine   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := g.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if mine {
				prof, err := client.Auth.Profile(ctx)
				if err != nil {
					return explain(err)
				}
				p.UserID = prof.ID
			}
			page, err := client.Articles.List(ctx, p)
			if err != nil {
				return explain(err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), page)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tCREATED")
			for _, a := range page.Data {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Title, a.CategoryID, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.CurrentPage, page.TotalPages, page.TotalData)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&mine, "mine", false, "only articles written by the signed-in user")
	f.StringVar(&p.Title, "title", "", "title contains")
	f.StringVar(&p.Category, "category", "", "category id")
	f.StringVar(&p.CreatedAtStart, "from", "", "created on or after (YYYY-MM-DD)")
	f.StringVar(&p.CreatedAtEnd, "to", "", "created on or before (YYYY-MM-DD)")
	f.StringVar(&p.SortBy, "sort-by", "", "createdAt, updatedAt or title")
	f.StringVar(&p.SortOrder, "sort-order", "", "asc or desc")
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVar(&p.Limit, "limit", cms.DefaultPageLimit, "page size")
	f.BoolVar(&asJSON, "json", false, "print the raw page as JSON")
	return cmd
}

func newArticlesGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := g.client()
			if err != nil {
				return err
			}
			a, err := client.Articles.Get(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			return writeJSON(cmd.OutOrStdout(), a)
		},
	}
}

func newArticlesCreateCmd(g *globals) *cobra.Command {
	var in cms.ArticleInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish an article",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := g.client()
			if err != nil {
				return err
			}
			if in.Content == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Content = string(b)
			}
			a, err := client.Articles.Create(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "article title")
	f.StringVar(&in.Content, "content", "", `article body, or "-" to read stdin`)
	f.StringVar(&in.CategoryID, "category", "", "category id")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newArticlesDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := g.client()
			if err != nil {
				return err
			}
			if _, err := client.Articles.Delete(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func newCategoriesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Browse categories",
	}
	var p cms.ListCategoriesParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := g.client()
			if err != nil {
				return err
			}
			page, err := client.Categories.List(cmd.Context(), p)
			if err != nil {
				return explain(err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range page.Data {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&p.Search, "search", "", "name contains")
	list.Flags().IntVar(&p.Page, "page", 0, "page number")
	list.Flags().IntVar(&p.Limit, "limit", 0, "page size")
	cmd.AddCommand(list)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
