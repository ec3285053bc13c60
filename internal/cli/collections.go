package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/spf13/cobra"
)

func newCollectionsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"c"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			collections, err := uc.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME")
			for _, c := range collections {
				row(w, c.ID, c.Name)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			collection, err := uc.CreateCollection(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", collection.ID, collection.Name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			name, err := uc.ForCollection(args[0]).Rename(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %q\n", args[0], name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := uc.ForCollection(args[0]).Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "images ID",
		Short: "List photos in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := uc.OpenCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCollection(cmd, session.View())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID PHOTO...",
		Short: "Remove photos from a collection",
		Long: `Removes the given photos from the collection in parallel. If any removal
fails the local listing is left unchanged and the failed photo IDs are reported.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := uc.OpenCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := session.SelectForRemoval(args[1:]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			removed, err := session.BulkRemove(cmd.Context())
			var bulkErr *usecase.BulkRemoveError
			if errors.As(err, &bulkErr) {
				fmt.Fprintf(out, "failed to remove: %s\n", strings.Join(bulkErr.Failed, ", "))
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %d photos from %s\n", removed, args[0])
			printCollection(cmd, session.View())
			return nil
		},
	})

	return cmd
}

func printCollection(cmd *cobra.Command, view usecase.CollectionView) {
	out := cmd.OutOrStdout()
	if view.Name != "" {
		fmt.Fprintf(out, "%s (%s)\n", view.Name, view.ID)
	}
	if len(view.Images) == 0 {
		fmt.Fprintln(out, "collection is empty")
		return
	}
	w := newTable(out, "PHOTO", "IMAGE URL")
	for _, img := range view.Images {
		row(w, img.UnsplashID, img.ImageURL)
	}
	_ = w.Flush()
}
