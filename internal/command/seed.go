package command

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/types"
)

// NewSeedCmd creates the demo data command.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the local store with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New("seed")
			defer log.Sync()

			st, err := store.Open(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			return seedDemo(cmd.Context(), st, cfg.Viewer)
		},
	}
}

func seedDemo(ctx context.Context, st store.Store, viewer types.Viewer) error {
	users := []types.User{
		{LocalID: viewer.ID, Username: firstNonEmpty(viewer.Name, "you"), Email: viewer.Email, PhotoURL: viewer.PhotoURL},
		{LocalID: "demo-alice", Username: "alice", Email: "alice@example.com"},
		{LocalID: "demo-bob", Username: "bob", Email: "bob@example.com"},
	}
	for _, u := range users {
		if _, err := st.PutUser(ctx, u); err != nil {
			return err
		}
	}

	general, err := st.PutChannel(ctx, types.Channel{
		Name:        "general",
		Description: "Everything and nothing",
		Members:     map[string]bool{viewer.ID: true, "demo-alice": true, "demo-bob": true},
	})
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	root, err := st.AddMessage(ctx, types.Message{
		AuthorID:  "demo-alice",
		ChannelID: &general.ID,
		Body:      "Welcome to clack! Try searching for this message.",
		Time:      now - 3600,
	})
	if err != nil {
		return err
	}

	reply, err := st.AddMessage(ctx, types.Message{
		AuthorID: "demo-bob",
		Body:     "First thread reply here.",
		Time:     now - 1800,
	})
	if err != nil {
		return err
	}
	if err := st.PatchDoc(ctx, store.CollectionMessages, root.ID, map[string]any{
		"comments": []string{reply.ID},
	}); err != nil {
		return err
	}

	viewerID := viewer.ID
	_, err = st.AddMessage(ctx, types.Message{
		AuthorID:     "demo-alice",
		DirectUserID: &viewerID,
		Body:         "Hey, this is a direct message for you.",
		Time:         now - 600,
	})
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
