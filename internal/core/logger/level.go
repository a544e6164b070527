package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

var (
	levelMu     sync.RWMutex
	levelByName map[string]zapcore.Level
	globalLevel = zapcore.InfoLevel

	// resolved caches the outcome of the parent walk per logger name.
	resolved sync.Map
)

// InitLevelConfig replaces the per-module level overrides.
// Entries with an unparsable level are dropped so that lookups fall through to the parent.
func InitLevelConfig(levels map[string]string, defaultLevel zapcore.Level) {
	parsed := make(map[string]zapcore.Level, len(levels))
	for name, raw := range levels {
		if lvl, err := ParseLevel(raw); err == nil {
			parsed[name] = lvl
		}
	}

	levelMu.Lock()
	levelByName = parsed
	globalLevel = defaultLevel
	resolved = sync.Map{}
	levelMu.Unlock()
}

// GetLevelForName resolves the level for a dotted logger name: exact match first,
// then each parent ("api.handlers" -> "api"), then the global level.
// Matching is case sensitive.
func GetLevelForName(name string) zapcore.Level {
	if cached, ok := resolved.Load(name); ok {
		return cached.(zapcore.Level)
	}

	levelMu.RLock()
	level := globalLevel
	if name != "" {
		for candidate := name; ; {
			if lvl, ok := levelByName[candidate]; ok {
				level = lvl
				break
			}
			idx := strings.LastIndexByte(candidate, '.')
			if idx < 0 {
				break
			}
			candidate = candidate[:idx]
		}
	}
	levelMu.RUnlock()

	resolved.Store(name, level)
	return level
}

// ParseLevel parses a level string case-insensitively; "warning" is accepted for "warn".
func ParseLevel(levelStr string) (zapcore.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelStr))
	if normalized == "warning" {
		normalized = "warn"
	}
	var level zapcore.Level
	err := level.UnmarshalText([]byte(normalized))
	return level, err
}

// levelFilterCore drops entries below level before they reach the wrapped core.
type levelFilterCore struct {
	zapcore.Core
	level zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.level && c.Core.Enabled(lvl)
}

// Check must be overridden: the embedded Check would consult the embedded Enabled.
func (c *levelFilterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), level: c.level}
}

var _ zapcore.Core = (*levelFilterCore)(nil)
