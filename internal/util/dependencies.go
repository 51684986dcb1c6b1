package util

import (
	"fmt"
	"os/exec"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

var (
	CjpegAvailable   bool
	CwebpAvailable   bool
	FFmpegAvailable  bool
	FFprobeAvailable bool
)

func CheckDependencies() {
	deps := []struct {
		name     string
		required bool
		flag     *bool
	}{
		{"ffmpeg", true, &FFmpegAvailable},
		{"ffprobe", true, &FFprobeAvailable},
		{config.CompressBin, false, &CjpegAvailable},
		{"cwebp", false, &CwebpAvailable},
	}

	for _, dep := range deps {
		path, err := exec.LookPath(dep.name)
		if err != nil {
			if dep.required {
				fmt.Printf("✗ %s not found (REQUIRED)\n", dep.name)
			} else {
				fmt.Printf("- %s not found (optional)\n", dep.name)
			}
			continue
		}
		fmt.Printf("✓ %s found: %s\n", dep.name, path)
		*dep.flag = true
	}

	if !CjpegAvailable {
		fmt.Println("- falling back to built-in JPEG encoder")
	}
}
