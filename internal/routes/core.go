package routes

import (
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/share"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/sysinfo"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

func CoreRoutes(r chi.Router) {
	r.Get("/health", handleHealth)
	r.Get("/api/system-status", handleSystemStatus)
	r.Get("/api/limits", handleLimits)
	r.Get("/api/share", handleShare)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	diskFreeMB := 0.0
	if ds, err := sysinfo.GetDiskSpace(config.OutputDir); err == nil {
		diskFreeMB = ds.AvailGB * 1024
	}
	respondJSON(w, 200, map[string]interface{}{
		"status":              "ok",
		"version":             config.Version,
		"ffmpeg":              util.FFmpegAvailable,
		"ffprobe":             util.FFprobeAvailable,
		"cjpeg":               util.CjpegAvailable,
		"disk_free_mb":        int64(diskFreeMB),
		"memory_available_mb": sysinfo.AvailableMemoryMB(),
	})
}

func handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	totalJobs, activeJobs := store.Jobs.Count()
	var disk interface{}
	if ds, err := sysinfo.GetDiskSpace(config.OutputDir); err == nil {
		disk = map[string]float64{
			"avail_gb": ds.AvailGB,
			"total_gb": ds.TotalGB,
			"used_gb":  ds.UsedGB,
		}
	}
	respondJSON(w, 200, map[string]interface{}{
		"memory_available_mb": sysinfo.AvailableMemoryMB(),
		"disk":                disk,
		"cpus":                runtime.NumCPU(),
		"goroutines":          runtime.NumGoroutine(),
		"video_jobs": map[string]int{
			"total":  totalJobs,
			"active": activeJobs,
		},
		"workers": map[string]int{
			"image": config.MaxWorkers,
			"video": config.VideoMaxWorkers,
		},
		"work_dirs": map[string]string{
			"uploads": util.FormatBytes(util.DirSize(config.UploadDir)),
			"outputs": util.FormatBytes(util.DirSize(config.OutputDir)),
		},
	})
}

func handleLimits(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, 200, map[string]interface{}{
		"quality":         config.Quality,
		"max_file_mb":     config.MaxFileMB,
		"max_files":       config.MaxFiles,
		"max_video_mb":    config.MaxVideoMB,
		"max_video_files": config.MaxVideoFiles,
		"image_exts":      config.AllowedImageExts,
		"video_exts":      config.AllowedVideoExts,
		"presets":         config.AllowedPresets,
		"codecs":          config.AllowedCodecs,
		"social_presets":  imagingPresetNames(),
	})
}

func handleShare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := share.Build(q.Get("platform"), q.Get("url"), q.Get("title"), r.UserAgent())
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}
	respondJSON(w, 200, target)
}
