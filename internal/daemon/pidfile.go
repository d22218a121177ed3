package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when another live daemon holds the PID file
var ErrAlreadyRunning = errors.New("daemon already running")

// PIDFile is a single-instance lock backed by a file holding the owner's PID
type PIDFile struct {
	path string
}

// NewPIDFile creates a lock for path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire creates the PID file exclusively. A file left behind by a
// process that no longer exists is replaced.
func (p *PIDFile) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n", os.Getpid())
			cerr := file.Close()
			if werr != nil {
				return werr
			}
			return cerr
		}
		if !os.IsExist(err) {
			return err
		}

		pid, rerr := ReadPID(p.path)
		if rerr == nil && IsProcessRunning(pid) {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}

		// Stale lock
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return fmt.Errorf("could not acquire %s", p.path)
}

// Release removes the PID file if this process owns it
func (p *PIDFile) Release() error {
	pid, err := ReadPID(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	return os.Remove(p.path)
}

// ReadPID reads the PID stored in path
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}

// IsProcessRunning reports whether a process with pid exists
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
