package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Watermark sizes scale with the image so the text stays readable on
// large photos without drowning small ones.
func watermarkFontPx(size string, minDim int) int {
	px := func(floor, div int) int {
		if v := minDim / div; v > floor {
			return v
		}
		return floor
	}
	switch size {
	case "small":
		return px(20, 40)
	case "large":
		return px(48, 15)
	case "xlarge":
		return px(72, 10)
	}
	return px(30, 25)
}

func watermarkMargin(minDim int) int {
	if m := minDim / 50; m > 20 {
		return m
	}
	return 20
}

func watermarkPos(position string, baseW, baseH, w, h, margin int) (int, int) {
	switch position {
	case "top-left":
		return margin, margin
	case "top-right":
		return baseW - w - margin, margin
	case "bottom-left":
		return margin, baseH - h - margin
	case "bottom-right":
		return baseW - w - margin, baseH - h - margin
	}
	return (baseW - w) / 2, (baseH - h) / 2
}

// WatermarkText stamps text onto a copy of base. The bitmap face is
// rendered at its native size and scaled up to the target pixel height.
func WatermarkText(base image.Image, text, position string, opacity float64, size string, col color.RGBA) (image.Image, error) {
	if text == "" {
		return nil, fmt.Errorf("watermark text is required")
	}
	opacity = clampOpacity(opacity)
	col.A = uint8(255 * opacity)

	b := base.Bounds()
	minDim := b.Dx()
	if b.Dy() < minDim {
		minDim = b.Dy()
	}

	face := basicfont.Face7x13
	nativeW := font.MeasureString(face, text).Ceil()
	nativeH := face.Metrics().Height.Ceil()
	if nativeW < 1 {
		return nil, fmt.Errorf("watermark text is required")
	}

	txt := image.NewRGBA(image.Rect(0, 0, nativeW, nativeH))
	d := &font.Drawer{
		Dst:  txt,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	targetH := watermarkFontPx(size, minDim)
	targetW := nativeW * targetH / nativeH
	stamp := resize.Resize(uint(targetW), uint(targetH), txt, resize.NearestNeighbor)

	out := cloneRGBA(base)
	margin := watermarkMargin(minDim)
	x, y := watermarkPos(position, b.Dx(), b.Dy(), targetW, targetH, margin)
	paste(out, stamp, x, y)
	return out, nil
}

// WatermarkImage overlays mark onto a copy of base, scaled to at most a
// quarter of the base's smaller edge.
func WatermarkImage(base, mark image.Image, position string, opacity float64) image.Image {
	opacity = clampOpacity(opacity)

	b := base.Bounds()
	minDim := b.Dx()
	if b.Dy() < minDim {
		minDim = b.Dy()
	}
	maxEdge := minDim / 4
	if maxEdge < 1 {
		maxEdge = 1
	}

	scaled := resize.Thumbnail(uint(maxEdge), uint(maxEdge), mark, resize.Lanczos3)
	if opacity < 1.0 {
		scaled = fadeAlpha(scaled, opacity)
	}

	out := cloneRGBA(base)
	mb := scaled.Bounds()
	margin := watermarkMargin(minDim)
	x, y := watermarkPos(position, b.Dx(), b.Dy(), mb.Dx(), mb.Dy(), margin)
	paste(out, scaled, x, y)
	return out
}

func clampOpacity(o float64) float64 {
	if o <= 0 || o > 1 {
		return 0.7
	}
	return o
}

func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func fadeAlpha(img image.Image, opacity float64) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = uint8(float64(c.A) * opacity)
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return out
}
