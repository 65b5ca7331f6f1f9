package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/memory"
)

// memoryCmd exposes read-only inspection of the memory store from the
// command line, without a running agent loop — useful for debugging a
// workspace's on-disk knowledge directly.
func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the category-typed memory store",
	}
	cmd.AddCommand(memoryListCmd())
	cmd.AddCommand(memorySearchCmd())
	cmd.AddCommand(memoryContextCmd())
	return cmd
}

func openMemoryStore() (*memory.Store, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return memory.New(cfg.WorkspacePath(), nil)
}

func memoryListCmd() *cobra.Command {
	var category, id, query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory items in a category, optionally filtered by id or substring query",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMemoryStore()
			if err != nil {
				return err
			}
			items, err := store.Read(memory.Category(category), id, query)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "fact", "fact|decision|goal|task|reflection")
	cmd.Flags().StringVar(&id, "id", "", "exact item id")
	cmd.Flags().StringVar(&query, "query", "", "case-insensitive substring over title/content")
	return cmd
}

func memorySearchCmd() *cobra.Command {
	var categories []string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search across categories by filename, title, tag, then content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMemoryStore()
			if err != nil {
				return err
			}
			var cats []memory.Category
			for _, c := range categories {
				c = strings.TrimSpace(c)
				if c != "" {
					cats = append(cats, memory.Category(c))
				}
			}
			items, err := store.Search(args[0], cats, limit)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "restrict search to these categories (default: all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "truncate results (0 = unlimited)")
	return cmd
}

func memoryContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Render the full build_context() block used in the Phase B system preamble",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMemoryStore()
			if err != nil {
				return err
			}
			ctx, err := store.BuildContext()
			if err != nil {
				return err
			}
			fmt.Println(ctx)
			return nil
		},
	}
}

func printItems(items []*memory.Item) {
	if len(items) == 0 {
		fmt.Println("(no items)")
		return
	}
	for _, it := range items {
		fmt.Printf("%s  [%s]  %s\n", it.ID, it.Category, it.Title)
		if it.Status != "" {
			fmt.Printf("  status: %s\n", it.Status)
		}
		if len(it.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(it.Tags, ", "))
		}
		fmt.Printf("  updated: %s\n", it.UpdatedAt.Format("2006-01-02T15:04:05Z"))
		fmt.Println()
	}
}
