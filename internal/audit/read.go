package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/watchdog/internal/model"
)

// Filter narrows the records returned by Read
type Filter struct {
	Action model.Action // empty matches all
	Tail   int          // keep only the last N matches; 0 keeps all
}

func (f Filter) match(rec model.AuditRecord) bool {
	return f.Action == "" || rec.FinalAction == f.Action
}

// ReadFile reads records from a JSON-lines audit file
func ReadFile(path string, f Filter) ([]model.AuditRecord, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()
	return Read(file, f)
}

// Read decodes records from r in file order. Malformed lines are skipped and counted.
func Read(r io.Reader, f Filter) ([]model.AuditRecord, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []model.AuditRecord
	skipped := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.AuditRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if !f.match(rec) {
			continue
		}
		records = append(records, rec)
		if f.Tail > 0 && len(records) > f.Tail {
			records = records[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("scan audit log: %w", err)
	}
	return records, skipped, nil
}
