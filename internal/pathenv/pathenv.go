// Package pathenv widens PATH for processes started on the user's behalf.
//
// Deep links are handled by processes the desktop starts, whose PATH often
// lacks package manager directories. Programs and hooks are looked up in,
// and run with, the widened PATH.
package pathenv

import (
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Extra is prepended to PATH on non-Windows systems.
var Extra = []string{"/usr/local/bin", "/opt/homebrew/bin", "/opt/homebrew/sbin"}

// Augment returns current with Extra added in front, skipping duplicates.
// It is unchanged on Windows.
func Augment(current string) string {
	if runtime.GOOS == "windows" {
		return current
	}

	seen := map[string]bool{}
	var parts []string
	for _, p := range append(append([]string{}, Extra...), filepath.SplitList(current)...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		parts = append(parts, p)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Current returns the augmented form of this process's PATH.
func Current() string {
	return Augment(os.Getenv("PATH"))
}

// LookPath finds program in the directories of path. Names containing a
// separator are returned as given.
func LookPath(program, path string) (string, error) {
	if strings.ContainsRune(program, filepath.Separator) || strings.ContainsRune(program, '/') {
		return program, nil
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		// LookPath on a name with a separator checks that one file,
		// including the executable bit and Windows extensions.
		if found, err := osexec.LookPath(filepath.Join(dir, program)); err == nil {
			return found, nil
		}
	}
	return "", &osexec.Error{Name: program, Err: osexec.ErrNotFound}
}
