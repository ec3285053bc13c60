package cli

import (
	"fmt"

	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/spf13/cobra"
)

func newPhotoCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Photo detail, collection membership and downloads",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show photo detail and the collections containing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := uc.OpenPhoto(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPhoto(cmd, session.View())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle ID COLLECTION",
		Short: "Add the photo to a collection, or remove it if already there",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := uc.OpenPhoto(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			member, err := session.ToggleCollection(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if member {
				fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[0], args[1])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[0], args[1])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "download ID",
		Short: "Queue the full-size image for the download worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := rt.collections()
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := uc.OpenPhoto(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			jobID, err := session.RequestDownload(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "download queued, job %s\n", jobID)
			return nil
		},
	})

	return cmd
}

func printPhoto(cmd *cobra.Command, view usecase.PhotoDetailView) {
	out := cmd.OutOrStdout()
	p := view.Photo
	fmt.Fprintf(out, "%s by %s\n", p.ID, p.AuthorName)
	if p.Description != "" {
		fmt.Fprintf(out, "%s\n", p.Description)
	}
	fmt.Fprintf(out, "%dx%d, %d likes\n", p.Width, p.Height, p.Likes)
	fmt.Fprintf(out, "%s\n\n", view.ShareText)

	if len(view.Collections) == 0 {
		fmt.Fprintln(out, "no collections yet")
		return
	}
	w := newTable(out, "IN", "ID", "NAME")
	for _, c := range view.Collections {
		row(w, mark(c.Selected), c.ID, c.Name)
	}
	_ = w.Flush()
}
