package cli

import (
	"github.com/GoArmGo/PhotoCollections/internal/app"
	"github.com/GoArmGo/PhotoCollections/internal/di"
	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket gateway",
		Long: `Starts the gateway that exposes search sessions, collections and photo
detail screens over HTTP, with live session snapshots over WebSocket.`,
		Example: `  # Start on SERVER_PORT (8080 by default)
  collections serve

  # Start on a custom port
  collections serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				rt.cfg.ServerPort = port
			}
			application, err := di.BuildServer(rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context(), app.ModeServer)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides SERVER_PORT)")

	return cmd
}

func newWorkerCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the download worker",
		Long: `Consumes download jobs from RabbitMQ, stores the images in S3/MinIO,
records them in PostgreSQL and reports the download to the backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := di.BuildWorker(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context(), app.ModeWorker)
		},
	}
}
