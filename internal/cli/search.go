package cli

import (
	"errors"
	"fmt"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/spf13/cobra"
)

var errAddWithoutCollection = errors.New("--add requires --collection")

func newSearchCmd(rt *runtime) *cobra.Command {
	var (
		opts  usecase.SearchOptions
		pages int
		add   []string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search photos, optionally hiding those already in a collection",
		Example: `  # First page of results
  collections search mountains

  # Three pages, hiding photos already in collection 42, then add two of them
  collections search mountains --collection 42 --pages 3 --add abc123 --add def456`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(add) > 0 && opts.CollectionID == "" {
				return errAddWithoutCollection
			}
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			opts.InitialQuery = args[0]
			session := uc.OpenSearch(opts)
			defer session.Close()

			ctx := cmd.Context()
			if err := session.Start(ctx); err != nil {
				return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
			}
			for page := 1; page < pages; page++ {
				loaded, err := session.LoadMore(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
				}
				if !loaded {
					break
				}
			}

			out := cmd.OutOrStdout()
			for _, id := range add {
				result, err := session.Tap(ctx, id)
				if err != nil {
					return fmt.Errorf("добавление %s: %w", id, err)
				}
				switch result.Action {
				case usecase.TapAdded:
					fmt.Fprintf(out, "added %s to %s\n", id, opts.CollectionID)
				case usecase.TapAlreadyAdded:
					fmt.Fprintf(out, "%s is already in %s\n", id, opts.CollectionID)
				}
			}

			printSnapshot(cmd, session.Snapshot())
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.CollectionID, "collection", "c", "", "Collection to search for; its photos are hidden from results")
	cmd.Flags().StringVar(&opts.CollectionName, "name", "", "Collection name shown in the header")
	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "Number of pages to load")
	cmd.Flags().StringSliceVar(&add, "add", nil, "Photo IDs from the results to add to the collection")

	return cmd
}

func printSnapshot(cmd *cobra.Command, snap usecase.SearchSnapshot) {
	out := cmd.OutOrStdout()
	if snap.CollectionID != "" {
		name := snap.CollectionName
		if name == "" {
			name = snap.CollectionID
		}
		fmt.Fprintf(out, "Adding to: %s\n", name)
	}

	if len(snap.Results) == 0 {
		if snap.Query != "" {
			fmt.Fprintf(out, "No results for %q\n", snap.Query)
		}
		return
	}

	w := newTable(out, "ID", "AUTHOR", "LIKES", "ADDED", "DESCRIPTION")
	for _, p := range snap.Results {
		row(w, p.ID, p.AuthorName, p.Likes, mark(p.Added), truncate(p.Description, 50))
	}
	_ = w.Flush()

	more := "more available"
	if snap.Exhausted {
		more = "no more results"
	}
	fmt.Fprintf(out, "\n%d photos, page %d, %s\n", len(snap.Results), snap.Page, more)
}
