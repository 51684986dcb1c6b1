package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var Version = "dev"

var (
	Port    string
	EnvMode string

	AdminToken string

	DataDir   string
	UploadDir string
	OutputDir string

	Quality         int
	MaxFileMB       int64
	MaxFiles        int
	MaxFetchMB      int64
	MaxPixels       int64
	SafePixels      int64
	AutoResize      bool
	MaxWorkers      int
	MinFreeMemoryMB int64
	ProcessTimeout  time.Duration

	MaxVideoMB          int64
	MaxVideoFiles       int
	VideoMaxWorkers     int
	VideoProcessTimeout time.Duration

	SessionTimeout time.Duration

	CompressBin     string
	AlertWebhookURL string
	Alerts          bool
)

const (
	DiskSpaceMinGB   = 2
	SessionDirMaxAge = 1 * time.Hour
	RateLimitWindow  = 60 * time.Second
)

var RateLimits = map[string]int{
	"default":      60,
	"login":        10,
	"compress":     20,
	"video-upload": 10,
}

var (
	AllowedImageExts = []string{"jpg", "jpeg", "png", "webp"}
	AllowedVideoExts = []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"}
)

var ImageMIMEs = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

var VideoMIMEs = map[string]string{
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",
	"webm": "video/webm",
}

var (
	AllowedPresets = []string{"lossless", "high_quality", "balanced", "youtube", "aggressive", "maximum"}
	AllowedCodecs  = []string{"h264", "h265", "vp9"}
)

func UsersFile() string { return filepath.Join(DataDir, "users.json") }

func VideoJobsFile() string { return filepath.Join(DataDir, "video_jobs.json") }

func VisitorsFile() string { return filepath.Join(DataDir, "visitors.log") }

func Load() {
	Port = envOrDefault("PORT", "5000")
	EnvMode = envOrDefault("APP_ENV", "development")

	AdminToken = os.Getenv("ADMIN_TOKEN")

	DataDir = envOrDefault("DATA_DIR", "data")
	UploadDir = envOrDefault("UPLOAD_DIR", filepath.Join(os.TempDir(), "vdo-image-app", "uploads"))
	OutputDir = envOrDefault("OUTPUT_DIR", filepath.Join(os.TempDir(), "vdo-image-app", "outputs"))

	Quality = envIntOrDefault("QUALITY", 85)
	if Quality < 1 || Quality > 100 {
		Quality = 85
	}
	MaxFileMB = envInt64OrDefault("MAX_FILE_MB", 100)
	MaxFiles = envIntOrDefault("MAX_FILES", 10)
	MaxFetchMB = envInt64OrDefault("MAX_FETCH_MB", 100)
	MaxPixels = envInt64OrDefault("MAX_PIXELS", 150_000_000)
	SafePixels = envInt64OrDefault("SAFE_PIXELS", 50_000_000)
	AutoResize = envOrDefault("AUTO_RESIZE", "true") == "true"
	MaxWorkers = envIntOrDefault("MAX_WORKERS", 2)
	MinFreeMemoryMB = envInt64OrDefault("MIN_FREE_MEMORY_MB", 500)
	ProcessTimeout = time.Duration(envIntOrDefault("PROCESS_TIMEOUT", 300)) * time.Second

	MaxVideoMB = envInt64OrDefault("MAX_VIDEO_MB", 1000)
	MaxVideoFiles = envIntOrDefault("MAX_VIDEO_FILES", 10)
	VideoMaxWorkers = envIntOrDefault("VIDEO_MAX_WORKERS", 2)
	VideoProcessTimeout = time.Duration(envIntOrDefault("VIDEO_PROCESS_TIMEOUT", 3600)) * time.Second

	SessionTimeout = time.Duration(envIntOrDefault("SESSION_TIMEOUT", 3600)) * time.Second

	CompressBin = envOrDefault("ADVANCED_COMPRESS_BIN", "cjpeg")

	AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	Alerts = AlertWebhookURL != ""

	for _, dir := range []string{DataDir, UploadDir, OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64OrDefault(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func Contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
