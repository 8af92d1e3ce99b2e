package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"figurebuilder.app/internal/transport/ws"
)

const hourLayout = "2006-01-02-15"

// FileName is the name of the segment holding records written during the
// UTC hour of t.
func FileName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(hourLayout) + ".jsonl.zst"
}

// segment is one open hourly file.
type segment struct {
	hour string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Reopening an hour appends a second zstd frame; the decoder reads
	// concatenated frames.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 32*1024)
	return &segment{hour: hour, file: file, zw: zw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (s *segment) close() error {
	return errors.Join(s.buf.Flush(), s.zw.Close(), s.file.Close())
}

// JSONLZstdWriter appends one JSON line per record to hourly zstd segments
// under dir. Each record reaches the file as a complete zstd block before
// Write returns; only the frame trailer waits for Close.
type JSONLZstdWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewJSONLZstdWriter(dir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := w.now()
	hour := t.UTC().Format(hourLayout)
	if w.cur == nil || w.cur.hour != hour {
		if err := w.sealLocked(); err != nil {
			return err
		}
		seg, err := openSegment(filepath.Join(w.dir, FileName(w.prefix, t)), hour)
		if err != nil {
			return err
		}
		w.cur = seg
	}
	if err := w.cur.enc.Encode(v); err != nil {
		return err
	}
	if err := w.cur.buf.Flush(); err != nil {
		return err
	}
	return w.cur.zw.Flush()
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sealLocked()
}

func (w *JSONLZstdWriter) sealLocked() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur = nil
	return err
}

// EventLogger records editor requests as events-<hour>.jsonl.zst files.
type EventLogger struct{ w *JSONLZstdWriter }

func NewEventLogger(dir string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(dir, "events")}
}

func (l *EventLogger) WriteEvent(ev ws.Event) error { return l.w.Write(ev) }
func (l *EventLogger) Close() error                 { return l.w.Close() }

// ReadEvents decodes every event of one segment file.
func ReadEvents(path string) ([]ws.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []ws.Event
	dec := json.NewDecoder(zr)
	for {
		var ev ws.Event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, &os.PathError{Op: "decode", Path: filepath.Base(path), Err: err}
		}
		out = append(out, ev)
	}
}
