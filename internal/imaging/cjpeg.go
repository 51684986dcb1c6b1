package imaging

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/nfnt/resize"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

type Result struct {
	OriginalSize   int64    `json:"original_size"`
	CompressedSize int64    `json:"compressed_size"`
	Ratio          float64  `json:"ratio"`
	Method         string   `json:"method"`
	Strategy       Strategy `json:"strategy"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
}

// Compress runs the full pipeline: plan, decode, optional downscale,
// then cjpeg (or the built-in encoder when the binary is missing).
// When the encoded file is no smaller than the original JPEG, the
// original bytes are kept instead.
func Compress(ctx context.Context, inputPath, outputPath string, quality int) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ProcessTimeout)
	defer cancel()

	info, err := os.Stat(inputPath)
	if err != nil {
		return Result{}, err
	}
	originalSize := info.Size()

	w, h, format, err := Dimensions(inputPath)
	if err != nil {
		return Result{}, err
	}

	plan := CurrentPlan(w, h)
	if plan.Strategy == StrategyReject {
		return Result{}, fmt.Errorf("rejected: %s", plan.Reason)
	}

	img, _, err := Decode(inputPath)
	if err != nil {
		return Result{}, err
	}

	if plan.Strategy == StrategySmartResize || plan.Strategy == StrategyAggressiveResize {
		img = downscaleTo(img, plan.TargetPixels)
	}

	if err := encodeJPEG(ctx, img, outputPath, quality); err != nil {
		return Result{}, err
	}

	method := "cjpeg"
	if !util.CjpegAvailable {
		method = "builtin"
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return Result{}, err
	}
	compressedSize := outInfo.Size()

	// Re-encoding an already tight JPEG can grow it. Keep the original
	// when nothing was gained and no resize happened.
	if compressedSize >= originalSize && format == "jpeg" && plan.Strategy == StrategyDirect {
		if err := copyFile(inputPath, outputPath); err != nil {
			return Result{}, err
		}
		compressedSize = originalSize
		method = "original"
	}

	util.PreserveModTime(inputPath, outputPath)

	bounds := img.Bounds()
	return Result{
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Ratio:          ratio(originalSize, compressedSize),
		Method:         method,
		Strategy:       plan.Strategy,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
	}, nil
}

func encodeJPEG(ctx context.Context, img image.Image, outputPath string, quality int) error {
	if !util.CjpegAvailable {
		return encodeBuiltin(img, outputPath, quality)
	}

	ppmPath := outputPath + ".ppm"
	f, err := os.Create(ppmPath)
	if err != nil {
		return err
	}
	if err := WritePPM(f, img); err != nil {
		f.Close()
		os.Remove(ppmPath)
		return err
	}
	f.Close()
	defer os.Remove(ppmPath)

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, config.CompressBin,
		"-quality", strconv.Itoa(quality),
		"-optimize",
		"-progressive",
		"-sample", "1x1",
		ppmPath,
	)
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%s: %w", config.CompressBin, err)
	}
	return nil
}

func encodeBuiltin(img image.Image, outputPath string, quality int) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return jpeg.Encode(out, img, &jpeg.Options{Quality: quality})
}

func downscaleTo(img image.Image, targetPixels int64) image.Image {
	b := img.Bounds()
	pixels := int64(b.Dx()) * int64(b.Dy())
	if pixels <= targetPixels {
		return img
	}
	scale := math.Sqrt(float64(targetPixels) / float64(pixels))
	newW := uint(math.Max(1, float64(b.Dx())*scale))
	return resize.Resize(newW, 0, img, resize.Lanczos3)
}

func ratio(original, compressed int64) float64 {
	if original == 0 {
		return 0
	}
	return math.Round((1-float64(compressed)/float64(original))*1000) / 10
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
