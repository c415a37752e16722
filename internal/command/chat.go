package command

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/presence"
	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/ui"
)

// NewChatCmd creates the interactive chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New("chat")
			defer log.Sync()

			st, err := store.Open(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := st.Watch(ctx); err != nil {
				log.Warnw("file watcher unavailable", "error", err)
			}

			keeper := presence.NewKeeper()
			if cfg.PresenceURL != "" {
				feed := presence.NewFeed(cfg.PresenceURL, keeper, log)
				go feed.Run(ctx)
			}

			return ui.Run(ui.Options{
				Store:    st,
				Viewer:   cfg.Viewer,
				Presence: keeper,
				Mute:     cfg.Mute,
				Log:      log,
			})
		},
	}
}
