package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	RootDirName      = ".dotagents"
	CommandsDir      = "commands"
	CacheDir         = "cache"
	TemplatesDir     = "templates"
	InstructionsFile = "INSTRUCTIONS.md"
	MCPFile          = "mcp.jsonc"
	GlobalConfigFile = "config.toml"
	LocalConfigFile  = "local.config.toml"
	CacheFile        = "cache.toml"
	AuditFile        = "audit.log"

	maxAncestorSearch = 50
)

// FindWorkspaceRoot walks up from startDir looking for a .dotagents directory.
// Returns (workspaceRoot, true) if found, or ("", false) if not.
func FindWorkspaceRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for i := 0; i < maxAncestorSearch; i++ {
		if stat, err := os.Stat(filepath.Join(dir, RootDirName)); err == nil && stat.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", false
}

// ApplicationDir returns the .dotagents directory of a workspace.
func ApplicationDir(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, RootDirName)
}

// GlobalConfigPath returns the path of config.toml for a workspace.
func GlobalConfigPath(workspaceRoot string) string {
	return filepath.Join(ApplicationDir(workspaceRoot), GlobalConfigFile)
}

// LocalConfigPath returns the path of local.config.toml for a workspace.
func LocalConfigPath(workspaceRoot string) string {
	return filepath.Join(ApplicationDir(workspaceRoot), LocalConfigFile)
}

// CacheRoot returns the git-ignored cache directory of a workspace.
func CacheRoot(workspaceRoot string) string {
	return filepath.Join(ApplicationDir(workspaceRoot), CacheDir)
}

// UserConfigDir returns $XDG_CONFIG_HOME, falling back to ~/.config.
func UserConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
