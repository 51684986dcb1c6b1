package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestMergeHorizontal(t *testing.T) {
	out, err := Merge([]image.Image{grid(40, 20), grid(30, 30)}, MergeOptions{
		Layout:  "horizontal",
		Spacing: 10,
		BG:      color.RGBA{255, 0, 0, 255},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 30x30 scales to the 20px min height, so 40 + 10 gap + 20 wide
	b := out.Bounds()
	if b.Dx() != 70 || b.Dy() != 20 {
		t.Errorf("size = %dx%d, want 70x20", b.Dx(), b.Dy())
	}
	r, g, _, _ := out.At(45, 10).RGBA()
	if byte(r>>8) != 255 || g != 0 {
		t.Errorf("gap pixel = %d,%d, want background red", r>>8, g>>8)
	}
}

func TestMergeVertical(t *testing.T) {
	out, err := Merge([]image.Image{grid(20, 40), grid(30, 30)}, MergeOptions{Layout: "vertical"})
	if err != nil {
		t.Fatal(err)
	}
	b := out.Bounds()
	if b.Dx() != 20 || b.Dy() != 60 {
		t.Errorf("size = %dx%d, want 20x60", b.Dx(), b.Dy())
	}
}

func TestMergeGrid(t *testing.T) {
	imgs := []image.Image{grid(40, 40), grid(40, 40), grid(40, 40), grid(40, 40)}
	out, err := Merge(imgs, MergeOptions{Layout: "grid", Columns: 2, Spacing: 10})
	if err != nil {
		t.Fatal(err)
	}
	b := out.Bounds()
	if b.Dx() != 90 || b.Dy() != 90 {
		t.Errorf("size = %dx%d, want 90x90", b.Dx(), b.Dy())
	}

	// columns cap at the image count
	out, err = Merge(imgs[:2], MergeOptions{Layout: "grid", Columns: 5})
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("capped grid = %dx%d, want 80x40", b.Dx(), b.Dy())
	}
}

func TestMergeErrors(t *testing.T) {
	if _, err := Merge([]image.Image{grid(10, 10)}, MergeOptions{Layout: "horizontal"}); err == nil {
		t.Error("single image should error")
	}
	if _, err := Merge([]image.Image{grid(10, 10), grid(10, 10)}, MergeOptions{Layout: "diagonal"}); err == nil {
		t.Error("unknown layout should error")
	}
}

func TestParseHexColor(t *testing.T) {
	if c := ParseHexColor("#336699"); c != (color.RGBA{0x33, 0x66, 0x99, 255}) {
		t.Errorf("parsed = %v", c)
	}
	if c := ParseHexColor("nope"); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("bad input = %v, want white", c)
	}
}
