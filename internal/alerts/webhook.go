package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

var (
	mu                sync.Mutex
	categoryCooldowns = make(map[string]time.Time)
)

const (
	colorOrange = 0xFFA500
	colorRed    = 0xFF4444
	colorCrit   = 0xFF0000
	colorGreen  = 0x2ECC71
)

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Footer      *footer `json:"footer,omitempty"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type footer struct {
	Text string `json:"text"`
}

type payload struct {
	Embeds []embed `json:"embeds"`
}

func send(category string, cooldown time.Duration, color int, title, description string, fields map[string]string) {
	if !config.Alerts || config.AlertWebhookURL == "" {
		return
	}

	mu.Lock()
	now := time.Now()
	if cooldown > 0 {
		if last, ok := categoryCooldowns[category]; ok && now.Sub(last) < cooldown {
			mu.Unlock()
			return
		}
	}
	categoryCooldowns[category] = now
	mu.Unlock()

	var embedFields []field
	for k, v := range fields {
		if v == "" {
			continue
		}
		if len(v) > 1024 {
			v = v[:1021] + "..."
		}
		embedFields = append(embedFields, field{Name: k, Value: v, Inline: true})
	}

	p := payload{
		Embeds: []embed{{
			Title:       title,
			Description: truncate(description, 2048),
			Color:       color,
			Fields:      embedFields,
			Timestamp:   now.UTC().Format(time.RFC3339),
			Footer:      &footer{Text: "vdo-image-app"},
		}},
	}

	body, _ := json.Marshal(p)
	go func() {
		resp, err := http.Post(config.AlertWebhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[Alerts] send failed: %v", err)
			return
		}
		resp.Body.Close()
	}()
}

func ServerStarted() {
	send("server-start", 0, colorGreen, "Server Started", fmt.Sprintf("vdo-image-app %s listening on :%s", config.Version, config.Port), nil)
}

func ServerStopping() {
	send("server-stop", 0, colorOrange, "Server Stopping", "vdo-image-app is shutting down", nil)
}

func CompressionFailed(jobID, filename string, err error) {
	send("compression", 5*time.Second, colorRed, "Image Compression Failed", err.Error(), map[string]string{
		"Job":   jobID,
		"File":  truncate(filename, 200),
		"Error": truncate(err.Error(), 500),
	})
}

func VideoJobFailed(jobID, filename string, err error) {
	send("video", 5*time.Second, colorRed, "Video Compression Failed", err.Error(), map[string]string{
		"Job":   jobID,
		"File":  truncate(filename, 200),
		"Error": truncate(err.Error(), 500),
	})
}

func FetchFailed(url string, err error) {
	send("fetch", 10*time.Second, colorOrange, "Remote Fetch Failed", err.Error(), map[string]string{
		"URL":   truncate(url, 200),
		"Error": truncate(err.Error(), 500),
	})
}

func LowDiskSpace(availGB float64) {
	send("disk", 10*time.Minute, colorCrit, "Low Disk Space", fmt.Sprintf("Only %.1fGB free, below %dGB threshold", availGB, config.DiskSpaceMinGB), nil)
}

func LowMemory(availMB int64) {
	send("memory", 10*time.Minute, colorCrit, "Low Memory", fmt.Sprintf("Only %dMB available, below %dMB threshold", availMB, config.MinFreeMemoryMB), nil)
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
