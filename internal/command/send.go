package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/types"
)

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <body...>",
		Short: "Send a message to a channel or user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			channelID, _ := cmd.Flags().GetString("channel")
			peerID, _ := cmd.Flags().GetString("to")
			replyTo, _ := cmd.Flags().GetString("reply-to")

			targets := 0
			for _, t := range []string{channelID, peerID, replyTo} {
				if t != "" {
					targets++
				}
			}
			if targets != 1 {
				return fmt.Errorf("exactly one of --channel, --to, or --reply-to is required")
			}

			log := logger.New("send")
			defer log.Sync()

			st, err := store.Open(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			msg := types.Message{
				AuthorID: cfg.Viewer.ID,
				Body:     strings.Join(args, " "),
			}
			if channelID != "" {
				msg.ChannelID = &channelID
			}
			if peerID != "" {
				msg.DirectUserID = &peerID
			}

			ctx := cmd.Context()
			sent, err := st.AddMessage(ctx, msg)
			if err != nil {
				return err
			}

			// A reply is linked by appending its id to the parent's
			// comment list.
			if replyTo != "" {
				parent := findMessage(st.Messages().Get(), replyTo)
				if parent == nil {
					return fmt.Errorf("message %s not found", replyTo)
				}
				comments := append(append([]string{}, parent.Comments...), sent.ID)
				if err := st.PatchDoc(ctx, store.CollectionMessages, replyTo, map[string]any{
					"comments": comments,
				}); err != nil {
					return err
				}
			}

			cmd.Println(sent.ID)
			return nil
		},
	}

	cmd.Flags().String("channel", "", "target channel id")
	cmd.Flags().String("to", "", "target user id for a direct message")
	cmd.Flags().String("reply-to", "", "parent message id for a thread reply")
	return cmd
}

func findMessage(messages []types.Message, id string) *types.Message {
	for i := range messages {
		if messages[i].ID == id {
			return &messages[i]
		}
	}
	return nil
}
