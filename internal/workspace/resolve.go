package workspace

import (
	"os"

	"github.com/MacklinHill1/neighborhood-help-app/internal/config"
)

const DefaultName = "main"

// Resolve determines the active workspace name using precedence:
// 1. flagOverride (--workspace flag)
// 2. $LOCAID_WORKSPACE
// 3. config.toml default_workspace
// 4. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if v := os.Getenv(config.EnvWorkspace); v != "" {
		return v
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultWorkspace != "" {
		return cfg.DefaultWorkspace
	}
	return DefaultName
}
