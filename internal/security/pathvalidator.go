package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathValidator rejects housekeeping roots that point at system directories
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a new PathValidator with default protected paths
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/sbin",
			"/sys",
			"/usr",
			// macOS system directories
			"/System",
			"/Applications",
			"/Library",
		},
	}
}

// ValidateRoot checks that root is usable as a housekeeping root.
// The directory does not have to exist.
func (pv *PathValidator) ValidateRoot(root string) error {
	if root == "" {
		return fmt.Errorf("root path is empty")
	}

	if !filepath.IsAbs(root) {
		return fmt.Errorf("root path must be absolute: %s", root)
	}

	cleanPath := filepath.Clean(root)
	if cleanPath != root && cleanPath+string(filepath.Separator) != root {
		return fmt.Errorf("root path contains suspicious elements: %s", root)
	}

	return pv.checkProtectedPaths(cleanPath)
}

// checkProtectedPaths refuses a protected directory itself and anything
// directly inside one (/usr/bin but not /usr/local/share/downloads)
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("refusing to use protected path as root: %s", cleanPath)
		}

		if protected == "/" {
			continue
		}

		if strings.HasPrefix(cleanPath, protected+"/") {
			rel, _ := filepath.Rel(protected, cleanPath)
			if !strings.Contains(rel, "/") {
				return fmt.Errorf("refusing to use system path as root: %s", cleanPath)
			}
		}
	}

	return nil
}

// AddProtectedPath protects path and the directories directly inside it
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedPaths = append(pv.protectedPaths, filepath.Clean(path))
}
