// Package pathutil expands tilde-prefixed paths and parses human-readable
// byte sizes, shared by the scheme search path (-x), the history file (-f),
// and history/log size limits.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ExpandTilde expands a leading ~ to the current user's home directory.
// ~username is not supported.
func ExpandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if len(path) == 1 {
		return home, nil
	}
	if path[1] != '/' && path[1] != filepath.Separator {
		return "", fmt.Errorf("~username expansion is not supported")
	}
	return filepath.Join(home, path[2:]), nil
}

// SplitSearchPath splits a semicolon-separated XML scheme search path (-x),
// expanding ~ in each entry.
func SplitSearchPath(path string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(path, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expanded, err := ExpandTilde(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

var sizeRe = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*(b|kb|mb|gb)?\s*$`)

// ParseSize parses strings like "100MB", "1.5GB", "512" (bytes) into a byte
// count.
func ParseSize(s string) (int64, error) {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	mult := float64(1)
	switch strings.ToLower(m[2]) {
	case "kb":
		mult = 1024
	case "mb":
		mult = 1024 * 1024
	case "gb":
		mult = 1024 * 1024 * 1024
	}
	return int64(n * mult), nil
}
