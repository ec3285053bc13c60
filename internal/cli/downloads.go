package cli

import (
	"github.com/GoArmGo/PhotoCollections/internal/di"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/spf13/cobra"
)

func newDownloadsCmd(rt *runtime) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List photos stored by the download worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, dbClient, err := di.BuildDownloadLedger(rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer dbClient.Close()

			// журналу не нужны хранилище и трекер
			downloads := usecase.NewDownloadUseCase(ledger, nil, nil, nil, rt.logger)
			list, err := downloads.ListDownloads(cmd.Context(), page, perPage)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout(), "PHOTO", "TRACKED", "CREATED", "URL")
			for _, d := range list {
				row(w, d.UnsplashID, mark(d.Tracked), d.CreatedAt.Format("2006-01-02 15:04"), d.ObjectURL)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 30, "Entries per page")

	return cmd
}
