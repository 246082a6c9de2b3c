package txn

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/qserver-tools/qdiag/utils"
)

const (
	// Full timestamp as written by the server-side exporter.
	TimestampLayout = "2006-01-02 15:04:05.000"

	// Time-of-day with zone offset, used by the compact export format.
	// The date comes from the log filename.
	ClockLayout = "15:04:05Z07:00"
)

// server_20250412_0930.csv style filenames carry the log date.
var filenameDatePattern = regexp.MustCompile(`(\d{8})_(\d{4})`)

// Parser reads QServer transaction log CSV files. Two header vocabularies
// are in circulation for the same data; the column map below covers both,
// so a single parser handles either export format.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// columnSetters maps lowercased CSV headers onto transaction fields.
// Headers not listed here are ignored.
var columnSetters = map[string]func(*Transaction, string, fileContext){
	"id":            func(t *Transaction, v string, _ fileContext) { t.ID = v },
	"transactionid": func(t *Transaction, v string, _ fileContext) { t.ID = v },

	"kind":            func(t *Transaction, v string, _ fileContext) { t.Kind = v },
	"transactionkind": func(t *Transaction, v string, _ fileContext) { t.Kind = v },

	"thread":     func(t *Transaction, v string, _ fileContext) { t.Thread = v },
	"threadname": func(t *Transaction, v string, _ fileContext) { t.Thread = v },

	"actionelementname": func(t *Transaction, v string, _ fileContext) { t.Action = v },
	"status":            func(t *Transaction, v string, _ fileContext) { t.Status = v },
	"initiator":         func(t *Transaction, v string, _ fileContext) { t.Initiator = v },
	"details":           func(t *Transaction, v string, _ fileContext) { t.Details = v },

	"starttime": func(t *Transaction, v string, fc fileContext) { t.StartTime = parseTimestamp(v, fc) },
	"endtime":   func(t *Transaction, v string, fc fileContext) { t.EndTime = parseTimestamp(v, fc) },

	"length":         func(t *Transaction, v string, _ fileContext) { t.Length = parseFloat(v) },
	"waittime":       func(t *Transaction, v string, _ fileContext) { t.WaitingTime = parseFloat(v) },
	"waitingtime":    func(t *Transaction, v string, _ fileContext) { t.WaitingTime = parseFloat(v) },
	"proctime":       func(t *Transaction, v string, _ fileContext) { t.ProcTime = parseFloat(v) },
	"begintime":      func(t *Transaction, v string, _ fileContext) { t.BeginTime = parseFloat(v) },
	"functime":       func(t *Transaction, v string, _ fileContext) { t.FuncTime = parseFloat(v) },
	"dbtime":         func(t *Transaction, v string, _ fileContext) { t.DbTime = parseFloat(v) },
	"mctime":         func(t *Transaction, v string, _ fileContext) { t.MemCommitTime = parseFloat(v) },
	"streamtime":     func(t *Transaction, v string, _ fileContext) { t.StreamTime = parseFloat(v) },
	"kerneltime":     func(t *Transaction, v string, _ fileContext) { t.KernelTime = parseFloat(v) },
	"cleanuptime":    func(t *Transaction, v string, _ fileContext) { t.CleanupTime = parseFloat(v) },
	"endprocesstime": func(t *Transaction, v string, _ fileContext) { t.EndProcessTime = parseFloat(v) },

	"procmem":    func(t *Transaction, v string, _ fileContext) { t.ProcMem = parseMemory(v) },
	"funcmem":    func(t *Transaction, v string, _ fileContext) { t.FuncMem = parseMemory(v) },
	"dbmem":      func(t *Transaction, v string, _ fileContext) { t.DbMem = parseMemory(v) },
	"streammem":  func(t *Transaction, v string, _ fileContext) { t.StreamMem = parseMemory(v) },
	"osvmsize":   func(t *Transaction, v string, _ fileContext) { t.OsVmSize = parseMemory(v) },
	"freememory": func(t *Transaction, v string, _ fileContext) { t.FreeMemory = parseMemory(v) },
}

// fileContext carries per-file parsing state, currently just the log date
// extracted from the filename for clock-only timestamps.
type fileContext struct {
	date time.Time
}

// ParseFile reads one CSV log file. Rows with unparsable fields keep zero
// values for those fields; a row never aborts the file.
func (p *Parser) ParseFile(path string) ([]*Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	setters := make([]func(*Transaction, string, fileContext), len(header))
	for i, name := range header {
		setters[i] = columnSetters[strings.ToLower(strings.TrimSpace(name))]
	}

	fc := fileContext{date: extractFilenameDate(filepath.Base(path))}

	transactions := make([]*Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		t := &Transaction{SourceFile: filepath.Base(path)}
		for i, value := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			setters[i](t, value, fc)
		}
		deriveLength(t)
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// ParseFiles parses every file into one deduplicated log.
func (p *Parser) ParseFiles(paths []string) (*TransactionLog, error) {
	log := NewTransactionLog()
	for _, path := range paths {
		transactions, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, t := range transactions {
			log.Add(t)
		}
		log.SourceFiles = append(log.SourceFiles, path)
	}
	log.SortByStartTime()
	return log, nil
}

// ParseDir parses every *.csv file in a directory.
func (p *Parser) ParseDir(dir string) (*TransactionLog, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no csv log files in %s", dir)
	}
	return p.ParseFiles(paths)
}

// deriveLength fills a missing total duration, preferring the recorded
// interval over the sum of the two main phases.
func deriveLength(t *Transaction) {
	if t.Length > 0 {
		return
	}
	if !t.StartTime.IsZero() && !t.EndTime.IsZero() && t.EndTime.After(t.StartTime) {
		t.Length = float64(t.EndTime.Sub(t.StartTime)) / float64(time.Millisecond)
		return
	}
	t.Length = t.WaitingTime + t.ProcTime
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseMemory(v string) utils.MemorySize {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return utils.MemorySize(n)
}

// parseTimestamp accepts either the full timestamp layout or a clock-only
// value, which gets the date from the filename (today when absent).
func parseTimestamp(v string, fc fileContext) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}

	if ts, err := time.Parse(TimestampLayout, v); err == nil {
		return ts
	}

	clock, err := time.Parse(ClockLayout, v)
	if err != nil {
		return time.Time{}
	}

	date := fc.date
	if date.IsZero() {
		date = time.Now().Truncate(24 * time.Hour)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, clock.Location())
}

func extractFilenameDate(name string) time.Time {
	m := filenameDatePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}
	}
	date, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}
	}
	return date
}
