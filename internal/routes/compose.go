package routes

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/imaging"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

func ComposeRoutes(r chi.Router) {
	r.Post("/api/merge", handleMerge)
	r.Post("/api/watermark", handleWatermark)
	r.Post("/api/batch", handleBatch)
}

// loadUploads saves and decodes every uploaded image into a fresh
// request dir, rejecting anything the current plan won't allow.
func loadUploads(w http.ResponseWriter, r *http.Request, field string, minFiles int) (imgs []image.Image, names []string, reqID, inDir, outDir string, ok bool) {
	maxBytes := config.MaxFileMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, int64(config.MaxFiles)*maxBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, 400, "Invalid multipart upload")
		return
	}
	files := r.MultipartForm.File[field]
	if len(files) < minFiles {
		respondError(w, 400, fmt.Sprintf("At least %d images required", minFiles))
		return
	}
	if len(files) > config.MaxFiles {
		respondError(w, 400, fmt.Sprintf("Too many files, limit is %d", config.MaxFiles))
		return
	}

	reqID = uuid.New().String()
	inDir = filepath.Join(config.UploadDir, reqID)
	outDir = filepath.Join(config.OutputDir, reqID)
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			respondError(w, 500, "Failed to create working directory")
			return
		}
	}

	for _, fh := range files {
		name := util.SanitizeFilename(filepath.Base(fh.Filename))
		if !util.IsAllowedImage(name) {
			os.RemoveAll(inDir)
			respondError(w, 400, fmt.Sprintf("%s: unsupported image type", name))
			return
		}
		if fh.Size > maxBytes {
			os.RemoveAll(inDir)
			respondError(w, 400, fmt.Sprintf("%s exceeds %dMB limit", name, config.MaxFileMB))
			return
		}

		inputPath := filepath.Join(inDir, name)
		if err := saveUpload(fh, inputPath); err != nil {
			os.RemoveAll(inDir)
			respondError(w, 500, "Failed to save upload")
			return
		}

		w0, h0, _, err := imaging.Dimensions(inputPath)
		if err != nil {
			os.RemoveAll(inDir)
			respondError(w, 422, fmt.Sprintf("%s: %s", name, util.ToUserError(err.Error())))
			return
		}
		if plan := imaging.CurrentPlan(w0, h0); plan.Strategy == imaging.StrategyReject {
			os.RemoveAll(inDir)
			respondError(w, 422, fmt.Sprintf("%s: %s", name, plan.Reason))
			return
		}

		img, _, err := imaging.Decode(inputPath)
		if err != nil {
			os.RemoveAll(inDir)
			respondError(w, 422, fmt.Sprintf("%s: %s", name, util.ToUserError(err.Error())))
			return
		}
		imgs = append(imgs, img)
		names = append(names, name)
	}
	ok = true
	return
}

func handleMerge(w http.ResponseWriter, r *http.Request) {
	imgs, _, reqID, inDir, outDir, ok := loadUploads(w, r, "files", 2)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	out, err := imaging.Merge(imgs, imaging.MergeOptions{
		Layout:  formValueOr(r, "layout", "horizontal"),
		Align:   formValueOr(r, "alignment", "center"),
		Columns: intFormValue(r, "columns", 3),
		Spacing: intFormValue(r, "spacing", 10),
		BG:      imaging.ParseHexColor(formValueOr(r, "bg", "#ffffff")),
	})
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}

	writeTransformed(w, r, out, "merged.jpg", reqID, outDir, "jpg")
}

// applyWatermark runs the text or image variant depending on which
// inputs the request carried.
func applyWatermark(r *http.Request, base image.Image, inDir string) (image.Image, error) {
	position := formValueOr(r, "position", "bottom-right")
	opacity := floatFormValue(r, "opacity", 0.7)

	if marks := r.MultipartForm.File["mark"]; len(marks) > 0 {
		markPath := filepath.Join(inDir, "mark-"+util.SanitizeFilename(filepath.Base(marks[0].Filename)))
		if err := saveUpload(marks[0], markPath); err != nil {
			return nil, fmt.Errorf("failed to save watermark image")
		}
		mark, _, err := imaging.Decode(markPath)
		if err != nil {
			return nil, fmt.Errorf("watermark image: %s", util.ToUserError(err.Error()))
		}
		return imaging.WatermarkImage(base, mark, position, opacity), nil
	}

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		return nil, fmt.Errorf("watermark text or mark image is required")
	}
	return imaging.WatermarkText(base, text, position, opacity,
		formValueOr(r, "font_size", "medium"),
		imaging.ParseHexColor(formValueOr(r, "color", "#ffffff")))
}

func handleWatermark(w http.ResponseWriter, r *http.Request) {
	img, name, reqID, inDir, outDir, ok := transformUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	out, err := applyWatermark(r, img, inDir)
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}
	writeTransformed(w, r, out, name, reqID, outDir, outputFormat(r, name))
}

func handleBatch(w http.ResponseWriter, r *http.Request) {
	imgs, names, reqID, inDir, outDir, ok := loadUploads(w, r, "files", 1)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	enabled := func(key string) bool { return r.FormValue(key) != "" }
	if !enabled("enable_resize") && !enabled("enable_crop") && !enabled("enable_rotate") && !enabled("enable_watermark") {
		respondError(w, 400, "Select at least one operation")
		return
	}

	type batchResult struct {
		Name  string `json:"name"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		URL   string `json:"url,omitempty"`
	}
	results := make([]batchResult, len(imgs))

	for i, img := range imgs {
		out, err := runBatchOps(r, img, inDir)
		if err != nil {
			results[i] = batchResult{Name: names[i], Error: err.Error()}
			continue
		}

		base := strings.TrimSuffix(names[i], filepath.Ext(names[i]))
		outName := base + "_batch.jpg"
		if err := imaging.Encode(r.Context(), out, filepath.Join(outDir, outName), "jpg", config.Quality); err != nil {
			results[i] = batchResult{Name: names[i], Error: util.ToUserError(err.Error())}
			continue
		}
		results[i] = batchResult{Name: names[i], OK: true, URL: "/api/download/" + reqID + "/" + outName}
	}

	respondJSON(w, 200, map[string]interface{}{
		"id":      reqID,
		"results": results,
	})
}

// runBatchOps applies the enabled operations in a fixed order: resize,
// crop, rotate, watermark.
func runBatchOps(r *http.Request, img image.Image, inDir string) (image.Image, error) {
	var err error

	if r.FormValue("enable_resize") != "" {
		switch formValueOr(r, "resize_mode", "percent") {
		case "percent":
			img, err = imaging.ResizePercent(img, floatFormValue(r, "resize_percent", 50))
		default:
			img = imaging.ResizeExact(img, intFormValue(r, "resize_width", 0), intFormValue(r, "resize_height", 0))
		}
		if err != nil {
			return nil, err
		}
	}

	if r.FormValue("enable_crop") != "" {
		img, err = imaging.Crop(img,
			intFormValue(r, "crop_x", 0),
			intFormValue(r, "crop_y", 0),
			intFormValue(r, "crop_width", 0),
			intFormValue(r, "crop_height", 0),
		)
		if err != nil {
			return nil, err
		}
	}

	if r.FormValue("enable_rotate") != "" {
		img, err = imaging.Rotate(img, intFormValue(r, "rotate_degrees", 90))
		if err != nil {
			return nil, err
		}
	}

	if r.FormValue("enable_watermark") != "" {
		img, err = applyWatermark(r, img, inDir)
		if err != nil {
			return nil, err
		}
	}

	return img, nil
}
