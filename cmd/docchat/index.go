package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/docchat/corpus"
	"github.com/tailored-agentic-units/docchat/retrieval/bleveindex"
)

func newIndexCmd(a *app) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Ingest the corpus into the search index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			open := bleveindex.New
			if clean {
				open = bleveindex.Recreate
			}
			idx, err := open(a.cfg.Index)
			if err != nil {
				return err
			}
			defer idx.Close()

			stats, err := a.ingest(cmd.Context(), idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents into %d chunks in %s\n",
				stats.Documents, stats.Chunks, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "delete the existing index before ingesting")

	cmd.AddCommand(newIndexAddCmd(a), newIndexRemoveCmd(a))
	return cmd
}

func newIndexAddCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Copy files into the corpus and index them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]corpus.Entry, 0, len(args))
			for _, file := range args {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				key := filepath.Base(file)
				if category != "" {
					key = category + "/" + key
				}
				entries = append(entries, corpus.Entry{Key: key, Value: data})
			}

			idx, err := bleveindex.New(a.cfg.Index)
			if err != nil {
				return err
			}
			defer idx.Close()

			p, closeStore, err := a.pipeline(cmd.Context(), idx)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := p.Upsert(cmd.Context(), entries...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d documents as %d chunks\n", stats.Documents, stats.Chunks)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "corpus category: resume, projects, workstyle or all")
	return cmd
}

func newIndexRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>...",
		Short: "Delete documents from the corpus and the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := bleveindex.New(a.cfg.Index)
			if err != nil {
				return err
			}
			defer idx.Close()

			p, closeStore, err := a.pipeline(cmd.Context(), idx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := p.Remove(cmd.Context(), args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d documents\n", len(args))
			return nil
		},
	}
}
