package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVisitorLogRecordAppendsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visitors.log")
	v := OpenVisitorLog(path)

	if err := v.Record("1.2.3.4"); err != nil {
		t.Fatal(err)
	}
	if err := v.Record("1.2.3.4"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, line := range lines {
		date, ip, ok := strings.Cut(line, ",")
		if !ok || len(date) != 10 || ip != "1.2.3.4" {
			t.Errorf("bad line %q", line)
		}
	}
}

func TestVisitorLogDailyStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visitors.log")
	content := "2026-08-29,1.1.1.1\n" +
		"2026-08-29,1.1.1.1\n" +
		"2026-08-29,2.2.2.2\n" +
		"2026-08-30,1.1.1.1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	v := OpenVisitorLog(path)
	stats, err := v.DailyStats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("days = %d, want 2", len(stats))
	}
	if stats[0].Date != "2026-08-29" || stats[0].Requests != 3 || stats[0].Uniques != 2 {
		t.Errorf("day 1 = %+v", stats[0])
	}
	if stats[1].Date != "2026-08-30" || stats[1].Requests != 1 || stats[1].Uniques != 1 {
		t.Errorf("day 2 = %+v", stats[1])
	}
}

func TestVisitorLogDailyStatsMissingFile(t *testing.T) {
	v := OpenVisitorLog(filepath.Join(t.TempDir(), "nope.log"))
	stats, err := v.DailyStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats != nil {
		t.Errorf("stats = %v, want nil", stats)
	}
}
