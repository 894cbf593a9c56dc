package lineedit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// History is a per-shell circular history with a stifle limit,
// persisted one line per entry with a size-capped backup-on-rotate.
type History struct {
	entries []string
	stifle  int
	path    string
	maxSize int64
	logger  *zap.Logger
}

func NewHistory(path string, stifle int, maxSize int64, logger *zap.Logger) *History {
	if stifle <= 0 {
		stifle = 500
	}
	return &History{path: path, stifle: stifle, maxSize: maxSize, logger: logger}
}

// Add appends a line, trimming the oldest entries once the stifle limit is
// exceeded.
func (h *History) Add(line string) {
	if line == "" {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.stifle {
		h.entries = h.entries[len(h.entries)-h.stifle:]
	}
}

func (h *History) Entries() []string { return h.entries }

func (h *History) Len() int { return len(h.entries) }

// At returns the 1-indexed absolute history entry (for "!N"), or "" if out
// of range.
func (h *History) At(n int) (string, bool) {
	if n < 1 || n > len(h.entries) {
		return "", false
	}
	return h.entries[n-1], true
}

// Relative returns the nth-from-last entry (for "!-N"); Relative(1) is the
// most recent command.
func (h *History) Relative(n int) (string, bool) {
	return h.At(len(h.entries) - n + 1)
}

// Last returns the most recent entry (for "!!").
func (h *History) Last() (string, bool) { return h.Relative(1) }

// ErrBadExpansion is bad_history.
var ErrBadExpansion = fmt.Errorf("bad history expansion")

// Expand resolves a leading "!!", "!N", or "!-N" history reference. Lines
// without a leading '!' are returned unchanged.
func (h *History) Expand(line string) (string, error) {
	if !strings.HasPrefix(line, "!") {
		return line, nil
	}
	switch {
	case line == "!!":
		v, ok := h.Last()
		if !ok {
			return "", ErrBadExpansion
		}
		return v, nil
	case strings.HasPrefix(line, "!-"):
		n, err := strconv.Atoi(line[2:])
		if err != nil {
			return "", ErrBadExpansion
		}
		v, ok := h.Relative(n)
		if !ok {
			return "", ErrBadExpansion
		}
		return v, nil
	default:
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return "", ErrBadExpansion
		}
		v, ok := h.At(n)
		if !ok {
			return "", ErrBadExpansion
		}
		return v, nil
	}
}

// Load reads the history file, one edited line per text line, in order so
// the last line becomes the most recent entry.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		h.Add(scanner.Text())
	}
	return scanner.Err()
}

// Save writes the in-memory history back to the history file, rotating a
// timestamped backup first if the existing file has grown past maxSize.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	if info, err := os.Stat(h.path); err == nil && h.maxSize > 0 && info.Size() >= h.maxSize {
		backup := fmt.Sprintf("%s.bak-%d", h.path, time.Now().Unix())
		if err := os.Rename(h.path, backup); err != nil && h.logger != nil {
			h.logger.Warn("history backup rotate failed", zap.Error(err))
		}
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range h.entries {
		fmt.Fprintln(w, e)
	}
	return w.Flush()
}
