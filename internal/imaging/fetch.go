package imaging

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

var fetchClient = &http.Client{Timeout: 60 * time.Second}

var driveFileRe = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)

// NormalizeFetchURL rewrites Google Drive share links to their
// direct-download form.
func NormalizeFetchURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "drive.google.com" {
		return rawURL
	}
	if m := driveFileRe.FindStringSubmatch(parsed.Path); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	if id := parsed.Query().Get("id"); id != "" {
		return "https://drive.google.com/uc?export=download&id=" + id
	}
	return rawURL
}

// Fetch downloads a remote image to destPath, enforcing MAX_FETCH_MB
// and an image/* content type.
func Fetch(rawURL, destPath string) (int64, error) {
	if v := util.ValidateURL(rawURL); !v.Valid {
		return 0, fmt.Errorf("%s", v.Error)
	}

	resp, err := fetchClient.Get(NormalizeFetchURL(rawURL))
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("fetch: remote returned %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return 0, fmt.Errorf("remote content is %q, not an image", ct)
	}

	maxBytes := config.MaxFetchMB * 1024 * 1024
	if resp.ContentLength > maxBytes {
		return 0, fmt.Errorf("remote file is %s, exceeds %dMB limit", util.FormatBytes(resp.ContentLength), config.MaxFetchMB)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		os.Remove(destPath)
		return 0, err
	}
	if n > maxBytes {
		os.Remove(destPath)
		return 0, fmt.Errorf("remote file exceeds %dMB limit", config.MaxFetchMB)
	}
	return n, nil
}
