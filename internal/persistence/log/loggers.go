package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// RunEntry records one resolution run.
type RunEntry struct {
	RunID       string  `json:"run_id"`
	At          string  `json:"at"`
	Tiles       int     `json:"tiles"`
	Families    int     `json:"families"`
	Pairs       int     `json:"pairs"`
	ChromaFirst bool    `json:"chroma_first"`
	Threshold   float64 `json:"threshold"`
}

// SweepEntry records one applied phase sweep.
type SweepEntry struct {
	RunID  string `json:"run_id"`
	At     string `json:"at"`
	Phase  int    `json:"phase"`
	Writes int    `json:"writes"`
	Zoned  bool   `json:"zoned,omitempty"`
}

// RunLogger writes one JSONL entry per resolution run (compressed).
type RunLogger struct{ w *JSONLZstdWriter }

func NewRunLogger(dataDir string) *RunLogger {
	return &RunLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "runs"), "runs")}
}

func (l *RunLogger) WriteRun(v RunEntry) error { return l.w.Write(v) }
func (l *RunLogger) Close() error              { return l.w.Close() }

// SweepLogger writes one JSONL entry per applied sweep (compressed).
type SweepLogger struct{ w *JSONLZstdWriter }

func NewSweepLogger(dataDir string) *SweepLogger {
	return &SweepLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "sweeps"), "sweeps")}
}

func (l *SweepLogger) WriteSweep(v SweepEntry) error { return l.w.Write(v) }
func (l *SweepLogger) Close() error                  { return l.w.Close() }
