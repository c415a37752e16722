package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/store"
)

// NewReactCmd creates the reaction toggle command.
func NewReactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "react <message-id> <emoji>",
		Short: "Toggle an emoji reaction on a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New("react")
			defer log.Sync()

			st, err := store.Open(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			messageID, emoji := args[0], args[1]
			msg := findMessage(st.Messages().Get(), messageID)
			if msg == nil {
				return fmt.Errorf("message %s not found", messageID)
			}

			emojis := make([]string, 0, len(msg.Emojis)+1)
			removed := false
			for _, e := range msg.Emojis {
				if e == emoji {
					removed = true
					continue
				}
				emojis = append(emojis, e)
			}
			if !removed {
				emojis = append(emojis, emoji)
			}

			return st.PatchDoc(cmd.Context(), store.CollectionMessages, messageID, map[string]any{
				"emojis": emojis,
			})
		},
	}
}
