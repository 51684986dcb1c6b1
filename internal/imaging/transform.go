package imaging

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"

	"github.com/nfnt/resize"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

type Dim struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SocialPresets are the fixed output sizes offered by the resize UI.
var SocialPresets = map[string]Dim{
	"instagram_square":    {1080, 1080},
	"instagram_portrait":  {1080, 1350},
	"instagram_landscape": {1080, 566},
	"facebook_post":       {1200, 630},
	"twitter_post":        {1600, 900},
	"youtube_thumbnail":   {1280, 720},
	"whatsapp_dp":         {500, 500},
}

// ResizeExact stretches to width x height; a zero dimension preserves
// aspect ratio.
func ResizeExact(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

func ResizePercent(img image.Image, percent float64) (image.Image, error) {
	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("percent must be in (0, 100], got %.1f", percent)
	}
	b := img.Bounds()
	w := uint(float64(b.Dx()) * percent / 100)
	if w < 1 {
		w = 1
	}
	return resize.Resize(w, 0, img, resize.Lanczos3), nil
}

// ResizePreset fits the image inside the preset box, keeping aspect.
func ResizePreset(img image.Image, preset string) (image.Image, error) {
	dim, ok := SocialPresets[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	return resize.Thumbnail(uint(dim.Width), uint(dim.Height), img, resize.Lanczos3), nil
}

func Rotate(img image.Image, degrees int) (image.Image, error) {
	switch degrees {
	case 90, 180, 270:
	default:
		return nil, fmt.Errorf("rotation must be 90, 180 or 270, got %d", degrees)
	}

	b := img.Bounds()
	var out *image.RGBA
	if degrees == 180 {
		out = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	} else {
		out = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			switch degrees {
			case 90:
				out.Set(b.Max.Y-1-y, x-b.Min.X, c)
			case 180:
				out.Set(b.Max.X-1-x, b.Max.Y-1-y, c)
			case 270:
				out.Set(y-b.Min.Y, b.Max.X-1-x, c)
			}
		}
	}
	return out, nil
}

func Crop(img image.Image, x, y, w, h int) (image.Image, error) {
	b := img.Bounds()
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > b.Dx() || y+h > b.Dy() {
		return nil, fmt.Errorf("crop %dx%d+%d+%d outside image %dx%d", w, h, x, y, b.Dx(), b.Dy())
	}
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+h)

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect), nil
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			out.Set(xx, yy, img.At(rect.Min.X+xx, rect.Min.Y+yy))
		}
	}
	return out, nil
}

// Encode writes img to path in the requested format. webp output needs
// the cwebp binary; it goes through a temporary PNG.
func Encode(ctx context.Context, img image.Image, path, format string, quality int) error {
	switch format {
	case "jpg", "jpeg":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	case "png":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return png.Encode(f, img)
	case "webp":
		if !util.CwebpAvailable {
			return fmt.Errorf("webp output requires cwebp on the server")
		}
		ctx, cancel := context.WithTimeout(ctx, config.ProcessTimeout)
		defer cancel()

		tmpPNG := path + ".png"
		f, err := os.Create(tmpPNG)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			os.Remove(tmpPNG)
			return err
		}
		f.Close()
		defer os.Remove(tmpPNG)

		cmd := exec.CommandContext(ctx, "cwebp", "-q", fmt.Sprintf("%d", quality), tmpPNG, "-o", path)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("cwebp: %w: %s", err, out)
		}
		return nil
	}
	return fmt.Errorf("unsupported output format %q", format)
}
