package symbol

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Manager discovers executable plugins in a directory and rescans it when
// files there are written, created, removed, or renamed. A rescan loads
// plugins with new names; plugins already loaded are neither reloaded nor
// unloaded. Rescans are
// debounced so tools that write a file in several steps trigger one
// reload, not many.
type Manager struct {
	dir      string
	reg      *Registry
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	loaded   map[string]*Plugin
	closeOne sync.Once
}

// NewManager creates a Manager watching dir for executable plugin files.
// dir is created if absent. NewManager does not scan; call Scan for the
// initial load and Watch to start hot-reload.
func NewManager(dir string, reg *Registry, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plugin dir %s: %w", dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("plugin watcher: %w", err)
	}
	m := &Manager{dir: dir, reg: reg, logger: logger, watcher: w, loaded: make(map[string]*Plugin)}
	return m, nil
}

// Scan loads every executable file in dir as a plugin named after the file
// without its extension; a name that is already loaded is skipped, not
// replaced.
func (m *Manager) Scan() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, already := m.loaded[name]; already {
			continue
		}
		p := newExecPlugin(name, path)
		if err := m.reg.Load(p); err != nil {
			if m.logger != nil {
				m.logger.Warn("plugin load failed", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		m.loaded[name] = p
	}
	return nil
}

// Watch starts the fsnotify hot-reload loop; it returns once ctx is
// cancelled.
func (m *Manager) Watch(ctx context.Context) {
	if err := m.watcher.Add(m.dir); err != nil {
		if m.logger != nil {
			m.logger.Error("plugin watch failed", zap.Error(err))
		}
		return
	}

	var reloadTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(500*time.Millisecond, func() {
				if err := m.Scan(); err != nil && m.logger != nil {
					m.logger.Warn("plugin rescan failed", zap.Error(err))
				}
			})
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			if m.logger != nil {
				m.logger.Error("plugin watcher error", zap.Error(err))
			}
		}
	}
}

func (m *Manager) Close() {
	m.closeOne.Do(func() {
		m.watcher.Close()
	})
}

// NewExecPlugin wraps a single external executable as a Plugin, for
// scheme-declared PLUGIN elements that name a file rather than a
// directory.
func NewExecPlugin(name, path string) *Plugin {
	return newExecPlugin(name, path)
}

// newExecPlugin wraps an external executable as a Plugin contributing one
// APIStdout action symbol named after the file.
func newExecPlugin(name, path string) *Plugin {
	return &Plugin{
		Name: name,
		Init: func() ([]*Symbol, error) {
			return []*Symbol{{
				Name: name,
				Type: TypeAction,
				API:  APIStdout,
				Fn: func(ctx context.Context, ec *ExecContext, script string, out *string) error {
					cmd := exec.CommandContext(ctx, path, script)
					cmd.Stdout = os.Stdout
					cmd.Stderr = os.Stderr
					return cmd.Run()
				},
			}}, nil
		},
	}
}
