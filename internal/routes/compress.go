package routes

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sanjayjain8513/vdo-image-app/internal/alerts"
	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/imaging"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

func CompressRoutes(r chi.Router) {
	r.Post("/api/compress", handleCompress)
	r.Post("/api/compress-url", handleCompressURL)
	r.Get("/api/download/{id}/{file}", handleDownload)
}

// imageSlots caps concurrent cjpeg pipelines at MAX_WORKERS.
var (
	imageSlots     chan struct{}
	imageSlotsOnce sync.Once
)

func acquireImageSlot() func() {
	imageSlotsOnce.Do(func() {
		imageSlots = make(chan struct{}, config.MaxWorkers)
	})
	imageSlots <- struct{}{}
	return func() { <-imageSlots }
}

type fileResult struct {
	Name    string          `json:"name"`
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	URL     string          `json:"url,omitempty"`
	Details *imaging.Result `json:"details,omitempty"`
}

func handleCompress(w http.ResponseWriter, r *http.Request) {
	maxBytes := config.MaxFileMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, int64(config.MaxFiles)*maxBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
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
	if len(files) > config.MaxFiles {
		respondError(w, 400, fmt.Sprintf("Too many files, limit is %d", config.MaxFiles))
		return
	}

	quality := intFormValue(r, "quality", config.Quality)
	if quality < 1 || quality > 100 {
		quality = config.Quality
	}

	reqID := uuid.New().String()
	inDir := filepath.Join(config.UploadDir, reqID)
	outDir := filepath.Join(config.OutputDir, reqID)
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			respondError(w, 500, "Failed to create working directory")
			return
		}
	}

	short := reqID[:8]
	results := make([]fileResult, len(files))
	var wg sync.WaitGroup

	for i, fh := range files {
		name := util.SanitizeFilename(filepath.Base(fh.Filename))
		if !util.IsAllowedImage(name) {
			results[i] = fileResult{Name: name, Error: "Unsupported image type"}
			continue
		}
		if fh.Size > maxBytes {
			results[i] = fileResult{Name: name, Error: fmt.Sprintf("File exceeds %dMB limit", config.MaxFileMB)}
			continue
		}

		inputPath := filepath.Join(inDir, name)
		if err := saveUpload(fh, inputPath); err != nil {
			results[i] = fileResult{Name: name, Error: "Failed to save upload"}
			continue
		}

		wg.Add(1)
		go func(i int, name, inputPath string) {
			defer wg.Done()
			release := acquireImageSlot()
			defer release()

			outName := strings.TrimSuffix(name, filepath.Ext(name)) + "_compressed.jpg"
			outputPath := filepath.Join(outDir, outName)

			res, err := imaging.Compress(r.Context(), inputPath, outputPath, quality)
			if err != nil {
				log.Printf("[%s] compress %s failed: %v", short, name, err)
				alerts.CompressionFailed(reqID, name, err)
				results[i] = fileResult{Name: name, Error: util.ToUserError(err.Error())}
				return
			}
			log.Printf("[%s] %s: %s -> %s (%.1f%%, %s)", short, name,
				util.FormatBytes(res.OriginalSize), util.FormatBytes(res.CompressedSize), res.Ratio, res.Method)
			results[i] = fileResult{
				Name:    name,
				OK:      true,
				URL:     "/api/download/" + reqID + "/" + outName,
				Details: &res,
			}
		}(i, name, inputPath)
	}

	wg.Wait()
	os.RemoveAll(inDir)

	respondJSON(w, 200, map[string]interface{}{
		"id":      reqID,
		"results": results,
	})
}

func handleCompressURL(w http.ResponseWriter, r *http.Request) {
	var rawURL string
	if err := r.ParseForm(); err == nil {
		rawURL = r.FormValue("url")
	}
	if rawURL == "" {
		respondError(w, 400, "url is required")
		return
	}

	quality := intFormValue(r, "quality", config.Quality)
	if quality < 1 || quality > 100 {
		quality = config.Quality
	}

	reqID := uuid.New().String()
	inDir := filepath.Join(config.UploadDir, reqID)
	outDir := filepath.Join(config.OutputDir, reqID)
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			respondError(w, 500, "Failed to create working directory")
			return
		}
	}
	defer os.RemoveAll(inDir)

	inputPath := filepath.Join(inDir, "remote")
	if _, err := imaging.Fetch(rawURL, inputPath); err != nil {
		alerts.FetchFailed(rawURL, err)
		respondError(w, 400, err.Error())
		return
	}

	release := acquireImageSlot()
	defer release()

	outputPath := filepath.Join(outDir, "remote_compressed.jpg")
	res, err := imaging.Compress(r.Context(), inputPath, outputPath, quality)
	if err != nil {
		respondError(w, 422, util.ToUserError(err.Error()))
		return
	}

	respondJSON(w, 200, map[string]interface{}{
		"id":      reqID,
		"results": []fileResult{{Name: "remote_compressed.jpg", OK: true, URL: "/api/download/" + reqID + "/remote_compressed.jpg", Details: &res}},
	})
}

func handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file := chi.URLParam(r, "file")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, 400, "Invalid download id")
		return
	}

	name := util.SanitizeFilename(filepath.Base(file))
	path := filepath.Join(config.OutputDir, id, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, 404, "File not found or expired")
		return
	}

	if mime, ok := config.ImageMIMEs[util.FileExt(name)]; ok {
		w.Header().Set("Content-Type", mime)
	}
	setAttachment(w, name)
	http.ServeFile(w, r, path)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
