package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/watchdog/internal/model"
	"go.uber.org/zap"
)

// Sink accepts one record per decision
type Sink interface {
	Write(rec model.AuditRecord) error
}

// FileLog appends records to a JSON-lines file
type FileLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewFileLog creates a log at path. The file is opened lazily on first write.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log file location
func (l *FileLog) Path() string {
	return l.path
}

// Write appends one record as a single line
func (l *FileLog) Write(rec model.AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if dir := filepath.Dir(l.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create audit dir: %w", err)
			}
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		l.file = f
	}

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Close releases the underlying file
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Recorder writes to a sink and swallows failures after logging them
type Recorder struct {
	sink Sink
	log  *zap.Logger
}

// NewRecorder wraps sink. A nil sink discards records.
func NewRecorder(sink Sink, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{sink: sink, log: log}
}

// Record writes rec and reports whether it was persisted
func (r *Recorder) Record(rec model.AuditRecord) bool {
	if r.sink == nil {
		return false
	}
	if err := r.sink.Write(rec); err != nil {
		r.log.Warn("audit write failed",
			zap.String("request_id", rec.RequestID),
			zap.String("action", string(rec.FinalAction)),
			zap.Error(err))
		return false
	}
	return true
}
