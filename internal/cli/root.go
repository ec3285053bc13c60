package cli

import (
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoCollections/internal/config"
	"github.com/GoArmGo/PhotoCollections/internal/di"
	"github.com/GoArmGo/PhotoCollections/internal/logger"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/spf13/cobra"
)

// runtime общее состояние команд, заполняется в PersistentPreRunE
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
}

func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Search Unsplash photos and keep personal collections in sync",
		Long: `Collections is a client for the photo collections backend.

It searches photos page by page, hides photos that are already in the
collection being edited, adds and removes photos, and runs the HTTP/WebSocket
gateway and the download worker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// LoadConfig подхватывает .env, если он есть
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			rt.cfg = cfg

			level := cfg.LogLevel
			if !rt.verbose && !isLongRunning(cmd) {
				level = "warn"
			}
			rt.logger = logger.NewSlog(logger.SlogConfig{
				Level:  level,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&rt.verbose, "verbose", false, "Log at LOG_LEVEL instead of warn for one-shot commands")

	cmd.AddCommand(newServeCmd(rt))
	cmd.AddCommand(newWorkerCmd(rt))
	cmd.AddCommand(newSearchCmd(rt))
	cmd.AddCommand(newCollectionsCmd(rt))
	cmd.AddCommand(newPhotoCmd(rt))
	cmd.AddCommand(newDownloadsCmd(rt))

	return cmd
}

func isLongRunning(cmd *cobra.Command) bool {
	return cmd.Name() == "serve" || cmd.Name() == "worker"
}

// collections собирает usecase коллекций для одноразовой команды
func (rt *runtime) collections() (usecase.CollectionUseCase, func(), error) {
	uc, cleanup, err := di.BuildCollections(rt.cfg, rt.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("инициализация клиента: %w", err)
	}
	return uc, cleanup, nil
}
