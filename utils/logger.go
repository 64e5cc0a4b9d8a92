/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	registryMu    sync.RWMutex
	registry      = map[string]*logrus.Logger{}
	defaultLevel  = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "debug"))
	defaultFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	defaultOutput io.Writer = os.Stdout
)

// NewLogger returns the logger registered under name, creating it on first
// use. Loggers write to stdout with the console formatter unless
// CONSOLE_LOG_FORMAT=json.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(defaultOutput)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter(name, defaultFormat))
	registry[name] = l
	return l
}

func newFormatter(name, format string) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &ConsoleFormatter{LoggerName: name, NameWidth: 10, CallerWidth: 25, Color: true}
}

// ConfigureLogFormat switches every registered logger, and loggers created
// later, between "text" and "json".
func ConfigureLogFormat(format string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	defaultFormat = format
	for name, l := range registry {
		l.SetFormatter(newFormatter(name, format))
	}
}

// ConfigureOutput redirects every registered logger to w.
func ConfigureOutput(w io.Writer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	defaultOutput = w
	for _, l := range registry {
		l.SetOutput(w)
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// ConfigureLogLevel sets the level of every registered logger and the
// standard logrus logger.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	registryMu.Lock()
	defaultLevel = lvl
	for _, l := range registry {
		l.SetLevel(lvl)
	}
	registryMu.Unlock()
	logrus.SetLevel(lvl)
}

// SetLoggerLevel changes one named logger. It reports false when no logger
// is registered under name.
func SetLoggerLevel(name string, lvlStr string) bool {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// ConsoleFormatter renders log4j style lines:
//
//	2025-01-02 15:04:05.000   DEBUG 4242   - [main] REPOSITORY r.base.go:120 : message key=value
type ConsoleFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
	CallerWidth     int
	Color           bool
}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	paint := func(s string, attrs ...color.Attribute) string {
		if !f.Color {
			return s
		}
		c := color.New(attrs...)
		c.EnableColor()
		return c.Sprint(s)
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format(tsFormat))
	b.WriteByte(' ')
	b.WriteString(paint(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), levelColor(entry.Level)))
	b.WriteByte(' ')
	b.WriteString(paint(fmt.Sprintf("%-6d", os.Getpid()), color.FgMagenta))
	b.WriteString(" - ")
	b.WriteString(paint("[main]", color.FgMagenta))
	b.WriteByte(' ')
	b.WriteString(paint(fmt.Sprintf("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth)), color.FgCyan))
	if entry.Caller != nil {
		line := strconv.Itoa(entry.Caller.Line)
		path := moduleRelative(filepath.ToSlash(entry.Caller.File))
		if f.CallerWidth > 0 {
			path = dotPathCompact(path, f.CallerWidth-len(line)-1)
		}
		b.WriteByte(' ')
		b.WriteString(paint(fmt.Sprintf("%*s", f.CallerWidth, path+":"+line), color.Faint))
	}
	b.WriteByte(' ')
	b.WriteString(paint(":", color.Faint))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func levelColor(level logrus.Level) color.Attribute {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.FgRed
	case logrus.WarnLevel:
		return color.FgYellow
	case logrus.InfoLevel:
		return color.FgGreen
	case logrus.DebugLevel:
		return color.FgBlue
	default:
		return color.FgMagenta
	}
}

// JSONLogFormatter renders one JSON object per entry.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

type jsonLogRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	rec := jsonLogRecord{
		Time:    entry.Time.Format(tsFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", moduleRelative(filepath.ToSlash(entry.Caller.File)), entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	moduleRootOnce sync.Once
	moduleRoot     string
)

// moduleRelative trims everything up to the directory holding the nearest
// go.mod of the first path seen.
func moduleRelative(p string) string {
	moduleRootOnce.Do(func() {
		dir := filepath.Dir(p)
		for {
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				moduleRoot = filepath.ToSlash(dir)
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	})
	if moduleRoot != "" && strings.HasPrefix(p, moduleRoot+"/") {
		return strings.TrimPrefix(p, moduleRoot+"/")
	}
	return p
}

// dotPathCompact turns "repository/base.go" into "repository.base.go" and,
// while the result is longer than max, abbreviates directories to their
// first rune and finally keeps only the tail.
func dotPathCompact(p string, max int) string {
	if max <= 0 {
		return ""
	}
	parts := strings.Split(p, "/")
	out := strings.Join(parts, ".")
	for i := 0; i < len(parts)-1 && len(out) > max; i++ {
		if r := []rune(parts[i]); len(r) > 0 {
			parts[i] = string(r[0])
		}
		out = strings.Join(parts, ".")
	}
	if r := []rune(out); len(r) > max {
		return string(r[len(r)-max:])
	}
	return out
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
