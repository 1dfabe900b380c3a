// Package logging builds the zap logger shared by every AIST process: a
// rotating file sink, an optional console sink, and, when
// Options.Broadcast is set, a broadcast sink that fans every entry out
// over the log broadcast event bus.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BroadcastFunc publishes one formatted log line to the log broadcast bus.
// Implemented by internal/eventbus.WireBus.PublishRaw in the running
// processes; kept as a function type here so this package never imports
// the bus package back (log broadcast is a sink, not a subscriber).
type BroadcastFunc func(line string)

// Options controls logger construction.
type Options struct {
	Folder         string
	ConsoleEnabled bool
	Component      string // process name, attached as a static field
	Broadcast      BroadcastFunc
	MaxFileBytes   int64 // rotation threshold; 0 uses a 10MiB default
}

// New builds a *zap.Logger writing to the configured sinks.
func New(opts Options) (*zap.Logger, error) {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 10 * 1024 * 1024
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if opts.Folder != "" {
		if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
			return nil, fmt.Errorf("create log folder %s: %w", opts.Folder, err)
		}
		fileName := filepath.Join(opts.Folder, opts.Component+".log")
		writer, err := newRotatingWriter(fileName, opts.MaxFileBytes)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, zap.InfoLevel)
		cores = append(cores, fileCore)
	}

	if opts.ConsoleEnabled {
		consoleEncoderCfg := encoderCfg
		consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), zapcore.Lock(os.Stdout), zap.InfoLevel)
		cores = append(cores, consoleCore)
	}

	if opts.Broadcast != nil {
		cores = append(cores, &broadcastCore{
			LevelEnabler: zap.InfoLevel,
			encoder:      zapcore.NewJSONEncoder(encoderCfg),
			publish:      opts.Broadcast,
		})
	}

	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), zap.InfoLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("component", opts.Component))
	return logger, nil
}

// NewChildLogger builds the same stack for a sandboxed skill worker
// child process, which re-initializes logging to the same sinks rather
// than inheriting the parent's logger.
func NewChildLogger(opts Options) (*zap.Logger, error) {
	return New(opts)
}

// broadcastCore is a minimal zapcore.Core that renders each entry as a
// single formatted line and republishes it rather than writing to a file
// or stream. It never buffers: delivery is best-effort, matching the
// event bus's own fire-and-forget semantics.
type broadcastCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	publish BroadcastFunc
}

func (c *broadcastCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.encoder.Clone()
	for _, f := range fields {
		f.AddTo(clone)
	}
	return &broadcastCore{LevelEnabler: c.LevelEnabler, encoder: clone, publish: c.publish}
}

func (c *broadcastCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *broadcastCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.encoder.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := buf.String()
	buf.Free()
	if c.publish != nil {
		c.publish(line)
	}
	return nil
}

func (c *broadcastCore) Sync() error { return nil }

// rotatingWriter is a size-triggered rename-and-reopen file sink. No
// rotation library appears as a direct import anywhere in the retrieved
// corpus (see DESIGN.md), so this mirrors the teacher's preference for a
// small hand-rolled mechanism over a dependency for something this simple.
type rotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	file     *os.File
	size     int64
}

func newRotatingWriter(path string, maxBytes int64) (*rotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &rotatingWriter{path: path, maxBytes: maxBytes, file: f, size: info.Size()}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	rotated := fmt.Sprintf("%s.%s", w.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(w.path, rotated); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *rotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}
