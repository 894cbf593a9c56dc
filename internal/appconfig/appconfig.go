// Package appconfig centralizes access to clish/konfd/konf's ambient
// configuration. Priority order: CLI flags (applied by the caller via Set)
// > environment variables > .env file > built-in defaults.
package appconfig

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultSocketPath  = "/tmp/konfd.socket"
	DefaultROSocket    = ""
	DefaultPIDFile     = "/var/run/konfd.pid"
	DefaultLockfile    = "/tmp/clish.lock"
	DefaultHistoryFile = "~/.klish_history"
	DefaultHistorySize = "1MB"
	DefaultIdleTimeout = 0 * time.Second
	DefaultSyslogFac   = "LOG_DAEMON"
)

// Manager is the ambient config store. Not to be confused with the domain
// configuration tree (internal/konf) that clish commands mutate at runtime.
type Manager struct {
	mu     sync.RWMutex
	values map[string]string
	logger *zap.Logger
}

func New(logger *zap.Logger) *Manager {
	return &Manager{values: make(map[string]string), logger: logger}
}

// Load populates defaults, then .env, then process environment, in that
// increasing-priority order. Call Set afterwards for flag overrides.
func (m *Manager) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadDefaults()
	m.loadEnvFile()
	m.loadEnvVars()
}

func (m *Manager) loadDefaults() {
	m.values["KONFD_SOCKET"] = DefaultSocketPath
	m.values["KONFD_PIDFILE"] = DefaultPIDFile
	m.values["CLISH_LOCKFILE"] = DefaultLockfile
	m.values["CLISH_HISTORY_FILE"] = DefaultHistoryFile
	m.values["CLISH_HISTORY_MAX_SIZE"] = DefaultHistorySize
	m.values["CLISH_SYSLOG_FACILITY"] = DefaultSyslogFac
}

func (m *Manager) loadEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		if m.logger != nil {
			m.logger.Debug(".env not found or unreadable", zap.Error(err))
		}
		return
	}
	for k, v := range envMap {
		m.values[k] = v
	}
}

func (m *Manager) loadEnvVars() {
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			m.values[k] = v
		}
	}
}

// Set injects a value, typically from a parsed CLI flag (highest priority).
func (m *Manager) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Manager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

func (m *Manager) GetInt(key string, def int) int {
	v := m.GetString(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func (m *Manager) GetBool(key string, def bool) bool {
	v := m.GetString(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

func (m *Manager) GetDuration(key string, def time.Duration) time.Duration {
	v := m.GetString(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
