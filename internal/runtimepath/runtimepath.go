// Package runtimepath locates the per-user directory holding the daemon's
// pid file.
package runtimepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const appDir = "edgeseek"

// ErrInsecureDir is returned when the runtime directory exists but is owned
// by another user or is accessible to others.
var ErrInsecureDir = errors.New("runtime directory is not private")

// Dir returns the private runtime directory, creating it with mode 0700.
// The base is the first of:
//  1. $XDG_RUNTIME_DIR
//  2. /run/user/<uid>
//  3. os.TempDir()
//
// Under the temp dir the directory name carries the uid.
func Dir() (string, error) {
	uid := os.Getuid()
	return privateDir(base(uid), uid)
}

// PidPath returns the path of the running daemon's pid file.
func PidPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daemon.pid"), nil
}

func base(uid int) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	runUser := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUser); err == nil && info.IsDir() {
		return filepath.Join(runUser, appDir)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appDir, uid))
}

// privateDir creates dir or checks that an existing one belongs to uid and
// is closed to group and others.
func privateDir(dir string, uid int) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return "", fmt.Errorf("stat runtime dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", dir, ErrInsecureDir)
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok && int(st.Uid) != uid {
		return "", fmt.Errorf("%s owned by uid %d: %w", dir, st.Uid, ErrInsecureDir)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return "", fmt.Errorf("%s has mode %o: %w", dir, info.Mode().Perm(), ErrInsecureDir)
	}
	return dir, nil
}
