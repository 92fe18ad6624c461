// Package workspace locates the on-disk state of a workspace: one daemon,
// its socket, lock, database, env file and logs.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
)

// EnvHome overrides the base directory, ~/.locaid by default.
const EnvHome = "LOCAID_HOME"

// BaseDir returns ~/.locaid, or $LOCAID_HOME when set.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".locaid")
}

// Dir returns the workspace-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "workspaces", name)
}

// SocketPath returns the UDS socket path for a workspace.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "backend.sock")
}

// LockPath returns the lock file path for a workspace.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the SQLite database path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "locaid.db")
}

// EnvPath returns the workspace .env file path.
func EnvPath(name string) string {
	return filepath.Join(Dir(name), ".env")
}

// LogDir returns the log directory for a workspace.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// DaemonLogPath returns the daemon log file path.
func DaemonLogPath(name string) string {
	return filepath.Join(LogDir(name), "locaidd.log")
}

// ClientLogPath returns the terminal client log file path.
func ClientLogPath(name string) string {
	return filepath.Join(LogDir(name), "locaid.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the workspace directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// List returns the names of existing workspaces, sorted.
func List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(BaseDir(), "workspaces"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
