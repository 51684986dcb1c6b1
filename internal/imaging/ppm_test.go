package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestWritePPM(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{255, 255, 255, 255})

	var buf bytes.Buffer
	if err := WritePPM(&buf, img); err != nil {
		t.Fatal(err)
	}

	want := append([]byte("P6\n2 2\n255\n"),
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("ppm bytes = %v, want %v", buf.Bytes(), want)
	}
}

func TestWritePPMNonZeroOrigin(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			base.Set(x, y, color.RGBA{byte(x * 60), byte(y * 60), 0, 255})
		}
	}
	sub := base.SubImage(image.Rect(1, 1, 3, 3))

	var buf bytes.Buffer
	if err := WritePPM(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("P6\n2 2\n255\n")) {
		t.Errorf("header = %q", buf.Bytes()[:12])
	}
	// first pixel of the sub-image is (1,1) of the base
	px := buf.Bytes()[len("P6\n2 2\n255\n"):]
	if px[0] != 60 || px[1] != 60 {
		t.Errorf("first pixel = %v, want 60,60,0", px[:3])
	}
}
