package store

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

// VisitorLog appends one "date,ip" CSV line per request to visitors.log.
type VisitorLog struct {
	mu   sync.Mutex
	path string
}

func OpenVisitorLog(path string) *VisitorLog {
	return &VisitorLog{path: path}
}

func (v *VisitorLog) Record(ip string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	f, err := os.OpenFile(v.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(time.Now().UTC().Format("2006-01-02") + "," + ip + "\n")
	return err
}

type DayStats struct {
	Date     string `json:"date"`
	Requests int    `json:"requests"`
	Uniques  int    `json:"uniques"`
}

// DailyStats scans the whole log. The file grows by one short line per
// request, so a linear scan stays cheap for the admin endpoint.
func (v *VisitorLog) DailyStats() ([]DayStats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	f, err := os.Open(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	perDay := make(map[string]map[string]int)
	var order []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		date, ip, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ",")
		if !ok || date == "" || ip == "" {
			continue
		}
		if _, seen := perDay[date]; !seen {
			perDay[date] = make(map[string]int)
			order = append(order, date)
		}
		perDay[date][ip]++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	stats := make([]DayStats, 0, len(order))
	for _, date := range order {
		total := 0
		for _, n := range perDay[date] {
			total += n
		}
		stats = append(stats, DayStats{Date: date, Requests: total, Uniques: len(perDay[date])})
	}
	return stats, nil
}

var Visitors *VisitorLog

func InitVisitors() {
	Visitors = OpenVisitorLog(config.VisitorsFile())
}
