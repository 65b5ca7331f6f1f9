package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/journal"
)

const journalDateLayout = "2006-01-02"

// journalCmd reads journal entries from the command line without a
// running agent loop.
func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read the daily narrative journal",
	}
	cmd.AddCommand(journalReadCmd())
	cmd.AddCommand(journalListCmd())
	return cmd
}

func openJournalStore() (*journal.Store, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return journal.New(cfg.WorkspacePath(), nil)
}

func parseJournalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(journalDateLayout, s)
}

func journalReadCmd() *cobra.Command {
	var date string
	var bodyOnly bool

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print the journal entry for a date (default: today, UTC)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournalStore()
			if err != nil {
				return err
			}
			d, err := parseJournalDate(date)
			if err != nil {
				return fmt.Errorf("invalid --date (want %s): %w", journalDateLayout, err)
			}

			var content string
			var ok bool
			if bodyOnly {
				content, ok, err = store.ReadEntryBody(d)
			} else {
				content, ok, err = store.ReadEntry(d)
			}
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("(no entry for this date)")
				return nil
			}
			fmt.Println(content)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD, defaults to today (UTC)")
	cmd.Flags().BoolVar(&bodyOnly, "body-only", false, "strip the frontmatter header")
	return cmd
}

func journalListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entry files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournalStore()
			if err != nil {
				return err
			}
			paths, err := store.ListEntries(limit)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("(no entries)")
				return nil
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "truncate results (0 = unlimited)")
	return cmd
}
