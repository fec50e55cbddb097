package fills

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"TrendWarden/internal/model"
)

var header = []string{"ts", "symbol", "action", "qty", "price", "note", "pnl"}

// Log is the append-only CSV record of entries and exits.
type Log struct {
	path string
	loc  *time.Location
}

// NewLog creates a fill log writing timestamps in the given IANA timezone;
// an empty timezone means the process-local zone.
func NewLog(path, timezone string) (*Log, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}
	return &Log{path: path, loc: loc}, nil
}

// Append writes one fill record, creating the file with a header row on
// first use.
func (l *Log) Append(f model.Fill) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fill log dir: %w", err)
		}
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open fill log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat fill log: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write fill log header: %w", err)
		}
	}

	pnl := ""
	if f.PnL != nil {
		pnl = strconv.FormatFloat(*f.PnL, 'f', 2, 64)
	}
	record := []string{
		f.Time.In(l.loc).Format("2006-01-02 15:04:05 MST"),
		f.Symbol,
		string(f.Action),
		strconv.FormatFloat(f.Qty, 'f', -1, 64),
		strconv.FormatFloat(f.Price, 'f', -1, 64),
		f.Note,
		pnl,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write fill record: %w", err)
	}
	w.Flush()
	return w.Error()
}
