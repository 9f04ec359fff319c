package logreader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultFileName is the name of the live client log.
const DefaultFileName = "Player.log"

// steamAppID is the Steam application id of Fall Guys, used to locate the Proton prefix.
const steamAppID = "1097150"

// ErrNoLogDirectory is returned when the client log directory cannot be located.
var ErrNoLogDirectory = errors.New("fall guys log directory not found")

// DefaultLogDirectory returns the directory the client writes Player.log to on the current platform.
func DefaultLogDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		// C:\Users\{username}\AppData\LocalLow\Mediatonic\FallGuys_client
		return filepath.Join(home, "AppData", "LocalLow", "Mediatonic", "FallGuys_client"), nil

	case "linux":
		// Steam Proton prefix
		dir := filepath.Join(home, ".steam", "steam", "steamapps", "compatdata", steamAppID,
			"pfx", "drive_c", "users", "steamuser", "AppData", "LocalLow", "Mediatonic", "FallGuys_client")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
		return "", ErrNoLogDirectory

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// LogPaths derives the live log path and the previous-session log path
// ("<name>-prev.log") from a directory and the live log's file name.
func LogPaths(directory, fileName string) (live, prev string) {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return filepath.Join(directory, fileName), filepath.Join(directory, base+"-prev.log")
}

// LogExists checks if the log file exists at the given path.
func LogExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("path is a directory, not a file")
	}
	return true, nil
}
