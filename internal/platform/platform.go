package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

// AppName is used for the configuration directory name.
const AppName = "dlkeeper"

// Info contains platform-specific information and paths
type Info struct {
	OS           Platform
	HomeDir      string
	Username     string
	DownloadsDir string
	ConfigDir    string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	return infoFor(Detect(), currentUser.HomeDir, currentUser.Username, os.Getenv)
}

func infoFor(p Platform, homeDir, username string, getenv func(string) string) (*Info, error) {
	info := &Info{
		OS:       p,
		HomeDir:  homeDir,
		Username: username,
	}

	switch p {
	case MacOS:
		info.DownloadsDir = filepath.Join(homeDir, "Downloads")
		info.ConfigDir = filepath.Join(homeDir, "Library", "Application Support", AppName)
	case Linux:
		info.DownloadsDir = linuxDownloadsDir(homeDir, getenv)
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(homeDir, ".config")
		}
		info.ConfigDir = filepath.Join(configHome, AppName)
	case Windows:
		profile := getenv("USERPROFILE")
		if profile == "" {
			profile = homeDir
		}
		info.DownloadsDir = filepath.Join(profile, "Downloads")
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(profile, "AppData", "Roaming")
		}
		info.ConfigDir = filepath.Join(appData, AppName)
	default:
		return nil, ErrUnsupportedPlatform
	}

	return info, nil
}

// linuxDownloadsDir honours XDG_DOWNLOAD_DIR when it is set to an absolute
// path, expanding a leading $HOME the way user-dirs.dirs writes it.
func linuxDownloadsDir(homeDir string, getenv func(string) string) string {
	dir := getenv("XDG_DOWNLOAD_DIR")
	if dir != "" {
		dir = strings.Replace(dir, "$HOME", homeDir, 1)
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
	}
	return filepath.Join(homeDir, "Downloads")
}

// ExpandHome replaces a leading "~" with homeDir.
func ExpandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
