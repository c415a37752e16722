package command

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openclack/clack/internal/chat"
	"github.com/openclack/clack/internal/types"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath      string
	Viewer      types.Viewer
	PresenceURL string
	Mute        chat.NotifyRules
}

// loadConfig merges .env, environment, and flags. Flags win.
func loadConfig(cmd *cobra.Command) (Config, error) {
	// Missing .env is fine; explicit CLACK_ENV_FILE is not.
	if path := os.Getenv("CLACK_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	dataDir := os.Getenv("CLACK_DATA_DIR")
	if flag, _ := cmd.Flags().GetString("data"); flag != "" {
		dataDir = flag
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		dataDir = filepath.Join(home, ".local", "share", "clack")
	}

	viewerID := os.Getenv("CLACK_VIEWER_ID")
	if flag, _ := cmd.Flags().GetString("as"); flag != "" {
		viewerID = flag
	}
	if viewerID == "" {
		return Config{}, fmt.Errorf("no viewer identity: set CLACK_VIEWER_ID or pass --as")
	}

	cfg := Config{
		DBPath: filepath.Join(dataDir, "clack.db"),
		Viewer: types.Viewer{
			ID:       viewerID,
			Name:     os.Getenv("CLACK_VIEWER_NAME"),
			Email:    os.Getenv("CLACK_VIEWER_EMAIL"),
			PhotoURL: os.Getenv("CLACK_VIEWER_PHOTO"),
		},
		PresenceURL: os.Getenv("CLACK_PRESENCE_URL"),
	}

	if raw := os.Getenv("CLACK_MUTE_CHANNELS"); raw != "" {
		for _, pattern := range strings.Split(raw, ",") {
			pattern = strings.TrimSpace(pattern)
			if pattern != "" {
				cfg.Mute.MutePatterns = append(cfg.Mute.MutePatterns, pattern)
			}
		}
	}

	return cfg, nil
}
