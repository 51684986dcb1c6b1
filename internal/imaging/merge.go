package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

type MergeOptions struct {
	Layout  string // horizontal, vertical, grid
	Align   string // center, top, bottom, left, right
	Columns int
	Spacing int
	BG      color.RGBA
}

// Merge composes two or more images onto one canvas. Inputs are first
// scaled to a common edge (min height for horizontal, min width for
// vertical, a shared thumbnail box for grid) so rows and columns line up.
func Merge(imgs []image.Image, opt MergeOptions) (image.Image, error) {
	if len(imgs) < 2 {
		return nil, fmt.Errorf("at least 2 images required for merging")
	}
	if opt.Spacing < 0 {
		opt.Spacing = 0
	}

	switch opt.Layout {
	case "horizontal":
		return mergeHorizontal(imgs, opt), nil
	case "vertical":
		return mergeVertical(imgs, opt), nil
	case "grid":
		return mergeGrid(imgs, opt), nil
	}
	return nil, fmt.Errorf("unsupported layout mode %q", opt.Layout)
}

func mergeHorizontal(imgs []image.Image, opt MergeOptions) image.Image {
	minH := imgs[0].Bounds().Dy()
	for _, img := range imgs[1:] {
		if h := img.Bounds().Dy(); h < minH {
			minH = h
		}
	}
	scaled := make([]image.Image, len(imgs))
	totalW := opt.Spacing * (len(imgs) - 1)
	for i, img := range imgs {
		scaled[i] = resize.Resize(0, uint(minH), img, resize.Lanczos3)
		totalW += scaled[i].Bounds().Dx()
	}

	canvas := newCanvas(totalW, minH, opt.BG)
	x := 0
	for _, img := range scaled {
		paste(canvas, img, x, 0)
		x += img.Bounds().Dx() + opt.Spacing
	}
	return canvas
}

func mergeVertical(imgs []image.Image, opt MergeOptions) image.Image {
	minW := imgs[0].Bounds().Dx()
	for _, img := range imgs[1:] {
		if w := img.Bounds().Dx(); w < minW {
			minW = w
		}
	}
	scaled := make([]image.Image, len(imgs))
	totalH := opt.Spacing * (len(imgs) - 1)
	for i, img := range imgs {
		scaled[i] = resize.Resize(uint(minW), 0, img, resize.Lanczos3)
		totalH += scaled[i].Bounds().Dy()
	}

	canvas := newCanvas(minW, totalH, opt.BG)
	y := 0
	for _, img := range scaled {
		paste(canvas, img, 0, y)
		y += img.Bounds().Dy() + opt.Spacing
	}
	return canvas
}

func mergeGrid(imgs []image.Image, opt MergeOptions) image.Image {
	cols := opt.Columns
	if cols < 1 {
		cols = 3
	}
	if cols > len(imgs) {
		cols = len(imgs)
	}
	rows := int(math.Ceil(float64(len(imgs)) / float64(cols)))

	// Fit every image inside a shared cell sized by the averages.
	avgW, avgH := 0, 0
	for _, img := range imgs {
		avgW += img.Bounds().Dx()
		avgH += img.Bounds().Dy()
	}
	avgW /= len(imgs)
	avgH /= len(imgs)
	cell := avgW
	if avgH < cell {
		cell = avgH
	}

	scaled := make([]image.Image, len(imgs))
	for i, img := range imgs {
		scaled[i] = resize.Thumbnail(uint(cell), uint(cell), img, resize.Lanczos3)
	}

	canvasW := cols*cell + (cols-1)*opt.Spacing
	canvasH := rows*cell + (rows-1)*opt.Spacing
	canvas := newCanvas(canvasW, canvasH, opt.BG)

	for i, img := range scaled {
		col, row := i%cols, i/cols
		x := col * (cell + opt.Spacing)
		y := row * (cell + opt.Spacing)
		if opt.Align == "center" || opt.Align == "" {
			x += (cell - img.Bounds().Dx()) / 2
			y += (cell - img.Bounds().Dy()) / 2
		}
		paste(canvas, img, x, y)
	}
	return canvas
}

func newCanvas(w, h int, bg color.RGBA) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg.A == 0 {
		bg = color.RGBA{255, 255, 255, 255}
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return canvas
}

func paste(dst *image.RGBA, src image.Image, x, y int) {
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(dst, r, src, b.Min, draw.Over)
}

// ParseHexColor reads "#rrggbb", defaulting to white on anything else.
func ParseHexColor(s string) color.RGBA {
	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}
