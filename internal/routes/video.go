package routes

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sanjayjain8513/vdo-image-app/internal/auth"
	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
	"github.com/sanjayjain8513/vdo-image-app/internal/video"
)

func VideoRoutes(r chi.Router) {
	r.Post("/api/video/upload", handleVideoUpload)
	r.Get("/api/video/status/{id}", handleVideoStatus)
	r.Get("/api/video/download/{id}/{file}", handleVideoDownload)
	r.Get("/api/video/download-all/{id}", handleVideoDownloadAll)
	r.Delete("/api/video/{id}", handleVideoDelete)
	r.Group(func(r chi.Router) {
		r.Use(auth.LoginRequired)
		r.Get("/api/my/jobs", handleMyJobs)
	})
}

func handleMyJobs(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())
	respondJSON(w, 200, map[string]interface{}{
		"jobs": store.Jobs.ListByOwner(s.Username),
	})
}

func jobDirs(jobID string) (inDir, outDir string) {
	return filepath.Join(config.UploadDir, "video-"+jobID), filepath.Join(config.OutputDir, "video-"+jobID)
}

// canAccessJob allows anyone on anonymous jobs; owned jobs need the
// owner's session or an admin.
func canAccessJob(r *http.Request, job *store.Job) bool {
	if job.Owner == "" {
		return true
	}
	_, s := auth.Current(r)
	if s == nil {
		return false
	}
	return s.Username == job.Owner || s.Role == "admin"
}

func handleVideoUpload(w http.ResponseWriter, r *http.Request) {
	if check := video.CanStartJob(); !check.OK {
		respondError(w, 503, check.Reason)
		return
	}

	maxBytes := config.MaxVideoMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, int64(config.MaxVideoFiles)*maxBytes+1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		respondError(w, 400, "Invalid multipart upload")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		respondError(w, 400, "No files uploaded")
		return
	}
	if len(files) > config.MaxVideoFiles {
		respondError(w, 400, fmt.Sprintf("Too many files, limit is %d", config.MaxVideoFiles))
		return
	}

	preset := formValueOr(r, "preset", "balanced")
	if !config.Contains(config.AllowedPresets, preset) {
		respondError(w, 400, "preset must be one of: "+strings.Join(config.AllowedPresets, ", "))
		return
	}
	codec := formValueOr(r, "codec", "h264")
	if !config.Contains(config.AllowedCodecs, codec) {
		respondError(w, 400, "codec must be one of: "+strings.Join(config.AllowedCodecs, ", "))
		return
	}

	jobID := uuid.New().String()
	inDir, outDir := jobDirs(jobID)
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			respondError(w, 500, "Failed to create working directory")
			return
		}
	}

	owner := ""
	if _, s := auth.Current(r); s != nil {
		owner = s.Username
	}

	job := &store.Job{
		ID:     jobID,
		Owner:  owner,
		Preset: preset,
		Codec:  codec,
		Status: "processing",
	}

	for _, fh := range files {
		name := util.SanitizeFilename(filepath.Base(fh.Filename))
		if !util.IsAllowedVideo(name) {
			os.RemoveAll(inDir)
			os.RemoveAll(outDir)
			respondError(w, 400, fmt.Sprintf("%s: unsupported video type", name))
			return
		}
		if fh.Size > maxBytes {
			os.RemoveAll(inDir)
			os.RemoveAll(outDir)
			respondError(w, 400, fmt.Sprintf("%s exceeds %dMB limit", name, config.MaxVideoMB))
			return
		}
		if job.FileByName(name) != nil {
			os.RemoveAll(inDir)
			os.RemoveAll(outDir)
			respondError(w, 400, fmt.Sprintf("duplicate filename %s", name))
			return
		}
		inputPath := filepath.Join(inDir, name)
		if err := saveUpload(fh, inputPath); err != nil {
			os.RemoveAll(inDir)
			os.RemoveAll(outDir)
			respondError(w, 500, "Failed to save upload")
			return
		}
		if util.FFprobeAvailable && !util.ValidateVideoFile(inputPath) {
			os.RemoveAll(inDir)
			os.RemoveAll(outDir)
			respondError(w, 400, fmt.Sprintf("%s: not a valid video file", name))
			return
		}
		job.Files = append(job.Files, &store.JobFile{
			Name:         name,
			Status:       store.FileQueued,
			OriginalSize: fh.Size,
		})
	}

	if err := store.Jobs.Put(job); err != nil {
		respondError(w, 500, "Failed to persist job")
		return
	}

	if err := video.Enqueue(job, inDir, outDir); err != nil {
		respondError(w, 503, err.Error())
		return
	}

	log.Printf("[%s] Video job created: %d files, %s/%s", jobID[:8], len(job.Files), preset, codec)
	respondJSON(w, 202, map[string]interface{}{
		"job_id": jobID,
		"files":  len(job.Files),
		"preset": preset,
		"codec":  codec,
	})
}

func handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := store.Jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, 404, "Job not found")
		return
	}
	if !canAccessJob(r, job) {
		respondError(w, 403, "Access denied")
		return
	}
	respondJSON(w, 200, job)
}

func handleVideoDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := store.Jobs.Get(id)
	if !ok {
		respondError(w, 404, "Job not found")
		return
	}

	if !canAccessJob(r, job) {
		respondError(w, 403, "Access denied")
		return
	}

	name := util.SanitizeFilename(filepath.Base(chi.URLParam(r, "file")))
	f := job.FileByName(name)
	if f == nil {
		respondError(w, 404, "File not in job")
		return
	}
	if f.Status != store.FileDone && f.Status != store.FileSkipped {
		respondError(w, 409, "File is not finished yet")
		return
	}

	_, outDir := jobDirs(id)
	outName := video.OutputName(name, job.Codec)
	path := filepath.Join(outDir, outName)
	if _, err := os.Stat(path); err != nil {
		respondError(w, 404, "Output expired or was cleaned up")
		return
	}

	if mime, ok := config.VideoMIMEs[util.FileExt(outName)]; ok {
		w.Header().Set("Content-Type", mime)
	}
	setAttachment(w, outName)
	http.ServeFile(w, r, path)
}

func handleVideoDownloadAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := store.Jobs.Get(id)
	if !ok {
		respondError(w, 404, "Job not found")
		return
	}

	if !canAccessJob(r, job) {
		respondError(w, 403, "Access denied")
		return
	}

	_, outDir := jobDirs(id)
	var paths []string
	for _, f := range job.Files {
		if f.Status != store.FileDone && f.Status != store.FileSkipped {
			continue
		}
		p := filepath.Join(outDir, video.OutputName(f.Name, job.Codec))
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		respondError(w, 409, "No finished files to download")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	setAttachment(w, "compressed_"+id[:8]+".zip")
	if err := video.WriteZip(w, paths); err != nil {
		log.Printf("[%s] zip stream failed: %v", id[:8], err)
	}
}

func handleVideoDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := store.Jobs.Get(id)
	if !ok {
		respondError(w, 404, "Job not found")
		return
	}
	if !canAccessJob(r, job) {
		respondError(w, 403, "Access denied")
		return
	}
	if job.Status == "processing" {
		respondError(w, 409, "Job is still processing")
		return
	}

	inDir, outDir := jobDirs(id)
	os.RemoveAll(inDir)
	os.RemoveAll(outDir)
	if err := store.Jobs.Delete(id); err != nil {
		respondError(w, 500, "Failed to delete job")
		return
	}
	log.Printf("[%s] Video job deleted", id[:8])
	respondJSON(w, 200, map[string]bool{"success": true})
}
