package ledger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLedger(t *testing.T, start time.Time) (*Ledger, *clock) {
	t.Helper()
	c := &clock{t: start}
	path := filepath.Join(t.TempDir(), "attendance.csv")
	l := New(path, WithClock(c.now), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return l, c
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestEnsureInitialized_CreatesHeader(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	if err := l.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	if got := readFile(t, l.Path()); got != "Name,Date,Time\n" {
		t.Errorf("file = %q, want header only", got)
	}
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	if err := l.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := l.MarkPresent("alice"); err != nil {
		t.Fatal(err)
	}
	before := readFile(t, l.Path())

	if err := l.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	if after := readFile(t, l.Path()); after != before {
		t.Errorf("EnsureInitialized changed existing file:\n%q\n%q", before, after)
	}
}

func TestEnsureInitialized_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "attendance.csv")
	l := New(path)

	if err := l.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestMarkPresent_OncePerDay(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 15, 30, 0, time.Local))

	rec, marked, err := l.MarkPresent("alice")
	if err != nil {
		t.Fatalf("MarkPresent: %v", err)
	}
	if !marked {
		t.Fatal("first MarkPresent should write a row")
	}
	want := Record{Name: "alice", Date: "2024-03-01", Time: "09:15:30"}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}

	for range 5 {
		_, marked, err := l.MarkPresent("alice")
		if err != nil {
			t.Fatal(err)
		}
		if marked {
			t.Error("repeat MarkPresent on the same day should not write")
		}
	}

	records, err := l.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0] != want {
		t.Errorf("stored record = %+v, want %+v", records[0], want)
	}
}

func TestMarkPresent_KeepsFirstArrivalTime(t *testing.T) {
	l, c := newTestLedger(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local))

	if _, _, err := l.MarkPresent("bob"); err != nil {
		t.Fatal(err)
	}
	c.t = time.Date(2024, 3, 1, 17, 45, 0, 0, time.Local)
	if _, _, err := l.MarkPresent("bob"); err != nil {
		t.Fatal(err)
	}

	records, _ := l.Records()
	if len(records) != 1 || records[0].Time != "08:00:00" {
		t.Errorf("records = %+v, want single 08:00:00 row", records)
	}
}

func TestMarkPresent_NewDayAddsRow(t *testing.T) {
	l, c := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	if _, _, err := l.MarkPresent("alice"); err != nil {
		t.Fatal(err)
	}
	c.t = c.t.AddDate(0, 0, 1)
	_, marked, err := l.MarkPresent("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !marked {
		t.Error("MarkPresent on a new day should write a row")
	}

	records, _ := l.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Date != "2024-03-01" || records[1].Date != "2024-03-02" {
		t.Errorf("dates = %s, %s", records[0].Date, records[1].Date)
	}
}

func TestMarkPresent_DistinctIdentities(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	for _, name := range []string{"alice", "bob", "alice", "carol", "bob"} {
		if _, _, err := l.MarkPresent(name); err != nil {
			t.Fatal(err)
		}
	}

	records, _ := l.Records()
	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "alice,bob,carol" {
		t.Errorf("names = %s, want alice,bob,carol", got)
	}
}

func TestMarkPresent_BootstrapsMissingFile(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	if _, _, err := l.MarkPresent("alice"); err != nil {
		t.Fatal(err)
	}
	want := "Name,Date,Time\nalice,2024-03-01,09:00:00\n"
	if got := readFile(t, l.Path()); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestMarkPresent_FileWithoutTrailingNewline(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))
	if err := os.WriteFile(l.Path(), []byte("Name,Date,Time\nbob,2024-02-29,08:00:00"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, marked, err := l.MarkPresent("alice"); err != nil || !marked {
		t.Fatalf("MarkPresent: marked=%v err=%v", marked, err)
	}

	want := "Name,Date,Time\nbob,2024-02-29,08:00:00\nalice,2024-03-01,09:00:00\n"
	if got := readFile(t, l.Path()); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
	records, err := l.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Name != "bob" || records[1].Name != "alice" {
		t.Errorf("records = %+v", records)
	}
}

func TestMarkPresent_QuotesCommaInName(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	if _, _, err := l.MarkPresent("Smith, J"); err != nil {
		t.Fatal(err)
	}
	_, marked, err := l.MarkPresent("Smith, J")
	if err != nil {
		t.Fatal(err)
	}
	if marked {
		t.Error("quoted identity should still deduplicate")
	}
	records, _ := l.Records()
	if len(records) != 1 || records[0].Name != "Smith, J" {
		t.Errorf("records = %+v", records)
	}
}

func TestAllRecords_MissingFile(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	rows, err := l.AllRecords()
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty non-nil slice", rows)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Error("AllRecords should not create the file")
	}
}

func TestAllRecords_HeaderAndOrder(t *testing.T) {
	l, c := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	_, _, _ = l.MarkPresent("carol")
	c.t = c.t.Add(time.Minute)
	_, _, _ = l.MarkPresent("alice")

	rows, err := l.AllRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "Name,Date,Time" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "carol" || rows[2][0] != "alice" {
		t.Errorf("rows out of insertion order: %v", rows)
	}
}

func TestRecords_ToleratesShortRows(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))
	content := "Name,Date,Time\nalice,2024-03-01,09:00:00\nbroken\n"
	if err := os.WriteFile(l.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1].Name != "broken" || records[1].Date != "" {
		t.Errorf("short row = %+v", records[1])
	}

	_, marked, err := l.MarkPresent("broken")
	if err != nil {
		t.Fatal(err)
	}
	if !marked {
		t.Error("short row without a date should not count as present")
	}
}

func TestToday(t *testing.T) {
	l, c := newTestLedger(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	_, _, _ = l.MarkPresent("alice")
	c.t = c.t.AddDate(0, 0, 1)
	_, _, _ = l.MarkPresent("bob")
	_, _, _ = l.MarkPresent("alice")

	today, err := l.Today()
	if err != nil {
		t.Fatal(err)
	}
	if len(today) != 2 {
		t.Fatalf("got %d records today, want 2", len(today))
	}
	for _, r := range today {
		if r.Date != "2024-03-02" {
			t.Errorf("record %+v not from today", r)
		}
	}
}
