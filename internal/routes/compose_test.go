package routes

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

func setupCompose(t *testing.T) {
	t.Helper()
	oldUp, oldOut := config.UploadDir, config.OutputDir
	oldMB, oldFiles, oldQ := config.MaxFileMB, config.MaxFiles, config.Quality
	oldMax, oldSafe, oldAuto, oldMem := config.MaxPixels, config.SafePixels, config.AutoResize, config.MinFreeMemoryMB

	dir := t.TempDir()
	config.UploadDir = filepath.Join(dir, "uploads")
	config.OutputDir = filepath.Join(dir, "outputs")
	config.MaxFileMB = 10
	config.MaxFiles = 10
	config.Quality = 85
	config.MaxPixels = 150_000_000
	config.SafePixels = 50_000_000
	config.AutoResize = true
	config.MinFreeMemoryMB = 0

	t.Cleanup(func() {
		config.UploadDir, config.OutputDir = oldUp, oldOut
		config.MaxFileMB, config.MaxFiles, config.Quality = oldMB, oldFiles, oldQ
		config.MaxPixels, config.SafePixels, config.AutoResize, config.MinFreeMemoryMB = oldMax, oldSafe, oldAuto, oldMem
	})
}

type pngUpload struct {
	field, name string
	w, h        int
}

func multipartPNGs(t *testing.T, uploads []pngUpload, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, up := range uploads {
		img := image.NewRGBA(image.Rect(0, 0, up.w, up.h))
		for y := 0; y < up.h; y++ {
			for x := 0; x < up.w; x++ {
				img.Set(x, y, color.RGBA{byte(x), byte(y), 0, 255})
			}
		}
		part, err := mw.CreateFormFile(up.field, up.name)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(part, img); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func TestHandleMerge(t *testing.T) {
	setupCompose(t)
	r := chi.NewRouter()
	ComposeRoutes(r)

	body, ctype := multipartPNGs(t, []pngUpload{
		{"files", "a.png", 40, 20},
		{"files", "b.png", 30, 30},
	}, map[string]string{"layout": "horizontal", "spacing": "0"})

	req := httptest.NewRequest("POST", "/api/merge", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	// b.png scales to a.png's 20px height, so 40+20 wide
	if got.Width != 60 || got.Height != 20 {
		t.Errorf("merged = %dx%d, want 60x20", got.Width, got.Height)
	}
	if _, err := os.Stat(filepath.Join(config.OutputDir, got.ID, got.Name)); err != nil {
		t.Errorf("merged output missing: %v", err)
	}
}

func TestHandleMergeRequiresTwo(t *testing.T) {
	setupCompose(t)
	r := chi.NewRouter()
	ComposeRoutes(r)

	body, ctype := multipartPNGs(t, []pngUpload{{"files", "a.png", 10, 10}}, nil)
	req := httptest.NewRequest("POST", "/api/merge", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleWatermark(t *testing.T) {
	setupCompose(t)
	r := chi.NewRouter()
	ComposeRoutes(r)

	body, ctype := multipartPNGs(t, []pngUpload{{"file", "photo.png", 200, 100}},
		map[string]string{"text": "hello", "position": "bottom-right"})
	req := httptest.NewRequest("POST", "/api/watermark", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// no text and no mark image is a bad request
	body, ctype = multipartPNGs(t, []pngUpload{{"file", "photo.png", 200, 100}}, nil)
	req = httptest.NewRequest("POST", "/api/watermark", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBatch(t *testing.T) {
	setupCompose(t)
	r := chi.NewRouter()
	ComposeRoutes(r)

	body, ctype := multipartPNGs(t, []pngUpload{{"files", "a.png", 40, 20}},
		map[string]string{"enable_rotate": "1", "rotate_degrees": "90"})
	req := httptest.NewRequest("POST", "/api/batch", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ID      string `json:"id"`
		Results []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
			URL  string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Results) != 1 || !got.Results[0].OK {
		t.Fatalf("results = %+v", got.Results)
	}
	if _, err := os.Stat(filepath.Join(config.OutputDir, got.ID, "a_batch.jpg")); err != nil {
		t.Errorf("batch output missing: %v", err)
	}

	// no operation selected
	body, ctype = multipartPNGs(t, []pngUpload{{"files", "a.png", 10, 10}}, nil)
	req = httptest.NewRequest("POST", "/api/batch", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("no-op status = %d, want 400", rec.Code)
	}
}
