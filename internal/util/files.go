package util

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/sysinfo"
)

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
var multiSpaceRe = regexp.MustCompile(`\s+`)

func SanitizeFilename(filename string) string {
	s := unsafeFilenameRe.ReplaceAllString(filename, "_")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "file"
	}
	return s
}

func FileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

func IsAllowedImage(name string) bool {
	return config.Contains(config.AllowedImageExts, FileExt(name))
}

func IsAllowedVideo(name string) bool {
	return config.Contains(config.AllowedVideoExts, FileExt(name))
}

func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// PreserveModTime copies src's mod time onto dst. Errors are ignored,
// a missing timestamp is cosmetic.
func PreserveModTime(src, dst string) {
	info, err := os.Stat(src)
	if err != nil {
		return
	}
	os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func ClearWorkDirs() {
	for _, dir := range []string{config.UploadDir, config.OutputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			os.MkdirAll(dir, 0755)
			continue
		}
		for _, e := range entries {
			os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	fmt.Println("✓ Cleared work directories")
}

// CleanupSessionDirs removes per-session upload/output dirs that haven't
// been touched within SessionDirMaxAge and logs remaining disk headroom.
func CleanupSessionDirs() {
	now := time.Now()
	for _, dir := range []string{config.UploadDir, config.OutputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) > config.SessionDirMaxAge {
				os.RemoveAll(filepath.Join(dir, e.Name()))
				log.Printf("[Cleanup] Removed stale session dir: %s", e.Name())
			}
		}
	}

	if ds, err := sysinfo.GetDiskSpace(config.OutputDir); err == nil {
		log.Printf("[DiskSpace] %.1fGB free / %.1fGB total (%.1fGB used)", ds.AvailGB, ds.TotalGB, ds.UsedGB)
		if ds.AvailGB < float64(config.DiskSpaceMinGB) {
			log.Printf("[DiskSpace] WARNING: Only %.1fGB free, below %dGB threshold!", ds.AvailGB, config.DiskSpaceMinGB)
		}
	}
}

func StartCleanupInterval() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for range ticker.C {
			CleanupSessionDirs()
		}
	}()
}

func DirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
