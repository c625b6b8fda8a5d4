package domain

import "path/filepath"

// DefaultStateDir is the working-directory-relative home of ledgerloop's files.
const DefaultStateDir = ".ledgerloop"

// ConfigFileName is the configuration file name, both local and global.
const ConfigFileName = "config.toml"

// LocalConfigPath returns the path to the working-directory config file.
func LocalConfigPath(workDir string) string {
	return filepath.Join(workDir, DefaultStateDir, ConfigFileName)
}

// GlobalConfigDir returns the global config directory under configHome.
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, "ledgerloop")
}

// StateFilePath returns the path to the durable state document.
func StateFilePath(stateDir string) string {
	return filepath.Join(stateDir, "state.json")
}

// LockFilePath returns the path to the state lock file.
func LockFilePath(stateDir string) string {
	return filepath.Join(stateDir, "state.lock")
}

// HistoryDBPath returns the path to the iteration history database.
func HistoryDBPath(stateDir string) string {
	return filepath.Join(stateDir, "history.db")
}

// LogPath returns the path to the log file.
func LogPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "ledgerloop.log")
}

// RepoCheckoutPath returns where the quality gates look for a repository checkout.
func RepoCheckoutPath(reposRoot, repo string) string {
	return filepath.Join(reposRoot, repo)
}
