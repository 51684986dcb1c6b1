package routes

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/imaging"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

func TransformRoutes(r chi.Router) {
	r.Post("/api/resize", handleResize)
	r.Post("/api/convert", handleConvert)
	r.Post("/api/rotate", handleRotate)
	r.Post("/api/crop", handleCrop)
}

func imagingPresetNames() []string {
	names := make([]string, 0, len(imaging.SocialPresets))
	for name := range imaging.SocialPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// transformUpload pulls the single uploaded image into a fresh request
// dir and decodes it. Callers must RemoveAll the returned input dir.
func transformUpload(w http.ResponseWriter, r *http.Request) (img image.Image, name, reqID, inDir, outDir string, ok bool) {
	maxBytes := config.MaxFileMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, 400, "Invalid multipart upload")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respondError(w, 400, "No file uploaded")
		return
	}
	fh := files[0]

	name = util.SanitizeFilename(filepath.Base(fh.Filename))
	if !util.IsAllowedImage(name) {
		respondError(w, 400, "Unsupported image type")
		return
	}
	if fh.Size > maxBytes {
		respondError(w, 400, fmt.Sprintf("File exceeds %dMB limit", config.MaxFileMB))
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

	inputPath := filepath.Join(inDir, name)
	if err := saveUpload(fh, inputPath); err != nil {
		os.RemoveAll(inDir)
		respondError(w, 500, "Failed to save upload")
		return
	}

	w0, h0, _, err := imaging.Dimensions(inputPath)
	if err != nil {
		os.RemoveAll(inDir)
		respondError(w, 422, util.ToUserError(err.Error()))
		return
	}
	if plan := imaging.CurrentPlan(w0, h0); plan.Strategy == imaging.StrategyReject {
		os.RemoveAll(inDir)
		respondError(w, 422, plan.Reason)
		return
	}

	img, _, err = imaging.Decode(inputPath)
	if err != nil {
		os.RemoveAll(inDir)
		respondError(w, 422, util.ToUserError(err.Error()))
		return
	}
	ok = true
	return
}

func writeTransformed(w http.ResponseWriter, r *http.Request, img image.Image, name, reqID, outDir, format string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	outName := base + "." + format
	outputPath := filepath.Join(outDir, outName)

	if err := imaging.Encode(r.Context(), img, outputPath, format, config.Quality); err != nil {
		respondError(w, 500, util.ToUserError(err.Error()))
		return
	}

	b := img.Bounds()
	respondJSON(w, 200, map[string]interface{}{
		"id":     reqID,
		"name":   outName,
		"url":    "/api/download/" + reqID + "/" + outName,
		"width":  b.Dx(),
		"height": b.Dy(),
	})
}

func handleResize(w http.ResponseWriter, r *http.Request) {
	img, name, reqID, inDir, outDir, ok := transformUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	var out image.Image
	var err error
	switch {
	case r.FormValue("preset") != "":
		out, err = imaging.ResizePreset(img, r.FormValue("preset"))
	case r.FormValue("percent") != "":
		out, err = imaging.ResizePercent(img, floatFormValue(r, "percent", 0))
	default:
		width := intFormValue(r, "width", 0)
		height := intFormValue(r, "height", 0)
		if width <= 0 && height <= 0 {
			respondError(w, 400, "width, height, percent or preset is required")
			return
		}
		out = imaging.ResizeExact(img, width, height)
	}
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}

	writeTransformed(w, r, out, name, reqID, outDir, outputFormat(r, name))
}

func handleConvert(w http.ResponseWriter, r *http.Request) {
	img, name, reqID, inDir, outDir, ok := transformUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	format := formValueOr(r, "format", "")
	if !config.Contains(config.AllowedImageExts, format) {
		respondError(w, 400, "format must be one of: "+strings.Join(config.AllowedImageExts, ", "))
		return
	}
	writeTransformed(w, r, img, name, reqID, outDir, format)
}

func handleRotate(w http.ResponseWriter, r *http.Request) {
	img, name, reqID, inDir, outDir, ok := transformUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	out, err := imaging.Rotate(img, intFormValue(r, "degrees", 90))
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}
	writeTransformed(w, r, out, name, reqID, outDir, outputFormat(r, name))
}

func handleCrop(w http.ResponseWriter, r *http.Request) {
	img, name, reqID, inDir, outDir, ok := transformUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(inDir)

	out, err := imaging.Crop(img,
		intFormValue(r, "x", 0),
		intFormValue(r, "y", 0),
		intFormValue(r, "width", 0),
		intFormValue(r, "height", 0),
	)
	if err != nil {
		respondError(w, 400, err.Error())
		return
	}
	writeTransformed(w, r, out, name, reqID, outDir, outputFormat(r, name))
}

// outputFormat keeps the source format unless the request asks for
// another, defaulting webp sources to jpg when cwebp is missing.
func outputFormat(r *http.Request, name string) string {
	if f := r.FormValue("format"); config.Contains(config.AllowedImageExts, f) {
		return f
	}
	ext := util.FileExt(name)
	if ext == "jpeg" {
		return "jpg"
	}
	if ext == "webp" && !util.CwebpAvailable {
		return "jpg"
	}
	return ext
}
