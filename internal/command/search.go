package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/search"
	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/types"
)

// NewSearchCmd creates the one-shot search command.
func NewSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search messages, users, and channels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New("search")
			defer log.Sync()

			st, err := store.Open(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			query := strings.Join(args, " ")
			results := search.Search(query,
				st.Messages().Get(), st.Users().Get(), st.Channels().Get(),
				cfg.Viewer.ID)

			if len(results) == 0 {
				cmd.Println("no results")
				return nil
			}
			for _, result := range results {
				cmd.Println(formatResult(result))
			}
			return nil
		},
	}
}

func formatResult(result types.SearchResult) string {
	switch hit := result.(type) {
	case types.MessageResult:
		where := hit.ChannelName
		if where == "" {
			where = hit.ChannelID
		}
		return fmt.Sprintf("[%s] %s in %s: %s", hit.Kind(), hit.AuthorName, where, hit.Body)
	case types.UserResult:
		return fmt.Sprintf("[user] @%s <%s>", hit.Username, hit.Email)
	case types.ChannelResult:
		return fmt.Sprintf("[channel] #%s: %s (%d members)", hit.Name, hit.Description, len(hit.Members))
	}
	return ""
}
