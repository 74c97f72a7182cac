// Package ledger keeps the append-only attendance table: a CSV file with a
// Name,Date,Time header and at most one row per identity per day.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// Header is the first row of every attendance table.
var Header = []string{"Name", "Date", "Time"}

// Record is one attendance row.
type Record struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

func (r Record) row() []string {
	return []string{r.Name, r.Date, r.Time}
}

// Ledger is the attendance table on disk. Writes from this process are
// serialised; other writers to the same file are not coordinated.
type Ledger struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a ledger backed by the CSV file at path.
func New(path string, opts ...Option) *Ledger {
	l := &Ledger{path: path, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the backing file.
func (l *Ledger) Path() string { return l.path }

// EnsureInitialized creates the table with its header row if it does not
// exist yet. An existing table is left untouched.
func (l *Ledger) EnsureInitialized() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureInitialized()
}

func (l *Ledger) ensureInitialized() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking attendance file: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating attendance directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating attendance file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing attendance header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing attendance header: %w", err)
	}
	return nil
}

// MarkPresent records identity as present today. The first arrival of the
// day wins: if a row for (identity, today) exists nothing is written and
// marked is false.
func (l *Ledger) MarkPresent(identity string) (rec Record, marked bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec = Record{
		Name: identity,
		Date: now.Format(constants.DateLayout),
		Time: now.Format(constants.TimeLayout),
	}

	if err := l.ensureInitialized(); err != nil {
		return rec, false, err
	}

	rows, err := l.readAll()
	if err != nil {
		return rec, false, err
	}
	for _, r := range dataRows(rows) {
		if len(r) >= 2 && r[0] == identity && r[1] == rec.Date {
			return rec, false, nil
		}
	}

	if err := l.append(rec); err != nil {
		return rec, false, err
	}

	l.logger.Info("attendance marked", "name", identity, "date", rec.Date, "time", rec.Time)
	return rec, true, nil
}

func (l *Ledger) append(rec Record) error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening attendance file: %w", err)
	}
	defer f.Close()

	if err := terminateLastLine(f); err != nil {
		return fmt.Errorf("appending attendance row: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rec.row()); err != nil {
		return fmt.Errorf("appending attendance row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("appending attendance row: %w", err)
	}
	return nil
}

// terminateLastLine writes a newline when the file does not end with one,
// so a hand-edited table never gets the next row glued onto its last line.
func terminateLastLine(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte{'\n'})
	return err
}

// AllRecords returns every row including the header, or nothing when the
// table has not been created yet.
func (l *Ledger) AllRecords() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.readAll()
	if errors.Is(err, fs.ErrNotExist) {
		return [][]string{}, nil
	}
	return rows, err
}

// Records returns the data rows as typed records.
func (l *Ledger) Records() ([]Record, error) {
	rows, err := l.AllRecords()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, r := range dataRows(rows) {
		rec := Record{}
		if len(r) > 0 {
			rec.Name = r[0]
		}
		if len(r) > 1 {
			rec.Date = r[1]
		}
		if len(r) > 2 {
			rec.Time = r[2]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Today returns the records dated with the current date.
func (l *Ledger) Today() ([]Record, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	today := l.now().Format(constants.DateLayout)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Date == today {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Ledger) readAll() ([][]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("opening attendance file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading attendance file: %w", err)
	}
	return rows, nil
}

// dataRows drops the header row.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}
