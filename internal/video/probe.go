package video

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sanjayjain8513/vdo-image-app/internal/store"
)

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		BitRate    string `json:"bit_rate"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// Probe runs ffprobe and summarizes the first video stream.
func Probe(path string) (*store.VideoAnalysis, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*store.VideoAnalysis, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	a := &store.VideoAnalysis{}
	a.Duration, _ = strconv.ParseFloat(parsed.Format.Duration, 64)

	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if a.Codec != "" {
				continue
			}
			a.Codec = strings.ToLower(s.CodecName)
			a.Width = s.Width
			a.Height = s.Height
			a.FPS = parseFrameRate(s.RFrameRate)
			if br, err := strconv.Atoi(s.BitRate); err == nil {
				a.BitrateK = br / 1000
			}
		case "audio":
			a.HasAudio = true
		}
	}

	if a.Codec == "" {
		return nil, fmt.Errorf("no video stream found")
	}

	// Fall back to the container bitrate when the stream doesn't
	// declare one (common for mkv).
	if a.BitrateK == 0 {
		if br, err := strconv.Atoi(parsed.Format.BitRate); err == nil {
			a.BitrateK = br / 1000
		}
	}
	return a, nil
}

func parseFrameRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		f, _ := strconv.ParseFloat(r, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
