package video

import (
	"strings"
	"testing"

	"github.com/sanjayjain8513/vdo-image-app/internal/store"
)

func TestSettingsForTiers(t *testing.T) {
	cases := []struct {
		level       string
		w, h        int
		wantBitrate string
		wantCRF     int
	}{
		{"balanced", 3840, 2160, "12000k", 22},
		{"balanced", 2560, 1440, "6000k", 21},
		{"balanced", 1920, 1080, "4000k", 20},
		{"balanced", 1280, 720, "2000k", 19},
		{"balanced", 640, 480, "1000k", 18},
		{"youtube", 1920, 1080, "2000k", 21},
		{"aggressive", 1280, 720, "800k", 22},
		{"maximum", 3840, 2160, "4000k", 28},
	}
	for _, c := range cases {
		s := SettingsFor(c.level, c.w, c.h)
		if s.Bitrate != c.wantBitrate {
			t.Errorf("%s %dx%d: bitrate = %s, want %s", c.level, c.w, c.h, s.Bitrate, c.wantBitrate)
		}
		if s.CRF != c.wantCRF {
			t.Errorf("%s %dx%d: crf = %d, want %d", c.level, c.w, c.h, s.CRF, c.wantCRF)
		}
		if !s.UseBitrate {
			t.Errorf("%s should use bitrate caps", c.level)
		}
	}
}

func TestSettingsForQualityLevels(t *testing.T) {
	s := SettingsFor("lossless", 1920, 1080)
	if s.CRF != 18 || s.Preset != "slow" || s.UseBitrate {
		t.Errorf("lossless 1080p = %+v", s)
	}
	s = SettingsFor("lossless", 1280, 720)
	if s.CRF != 16 {
		t.Errorf("lossless 720p crf = %d, want 16", s.CRF)
	}
	s = SettingsFor("high_quality", 1920, 1080)
	if s.CRF != 20 || s.Preset != "medium" {
		t.Errorf("high_quality 1080p = %+v", s)
	}
}

func TestSettingsForFPSLimit(t *testing.T) {
	for _, level := range []string{"youtube", "aggressive", "maximum"} {
		if s := SettingsFor(level, 1920, 1080); s.FPSLimit != 30 {
			t.Errorf("%s fps limit = %d, want 30", level, s.FPSLimit)
		}
	}
	for _, level := range []string{"lossless", "high_quality", "balanced"} {
		if s := SettingsFor(level, 1920, 1080); s.FPSLimit != 0 {
			t.Errorf("%s fps limit = %d, want 0", level, s.FPSLimit)
		}
	}
}

func TestSettingsForUnknownLevelFallsBack(t *testing.T) {
	got := SettingsFor("bogus", 1920, 1080)
	want := SettingsFor("balanced", 1920, 1080)
	if got != want {
		t.Errorf("unknown level = %+v, want balanced %+v", got, want)
	}
}

func TestReasonableBitrate(t *testing.T) {
	cases := []struct {
		w, h int
		want int
	}{
		{640, 480, 1_000_000},
		{1280, 720, 2_500_000},
		{1920, 1080, 5_000_000},
		{3840, 2160, 15_000_000},
		{7680, 4320, 25_000_000},
	}
	for _, c := range cases {
		if got := ReasonableBitrate(c.w, c.h); got != c.want {
			t.Errorf("ReasonableBitrate(%d, %d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	efficient := &store.VideoAnalysis{Codec: "h264", Width: 1920, Height: 1080, BitrateK: 4000}
	if skip, _ := ShouldSkip(efficient, "lossless"); !skip {
		t.Error("4Mbps 1080p h264 should skip at lossless")
	}

	// 10% over the reasonable ceiling is still within tolerance.
	border := &store.VideoAnalysis{Codec: "h264", Width: 1920, Height: 1080, BitrateK: 5500}
	if skip, _ := ShouldSkip(border, "lossless"); !skip {
		t.Error("bitrate at 1.1x ceiling should still skip")
	}

	fat := &store.VideoAnalysis{Codec: "h264", Width: 1920, Height: 1080, BitrateK: 8000}
	if skip, _ := ShouldSkip(fat, "lossless"); skip {
		t.Error("8Mbps 1080p h264 should not skip")
	}

	hevc := &store.VideoAnalysis{Codec: "hevc", Width: 1920, Height: 1080, BitrateK: 1000}
	if skip, _ := ShouldSkip(hevc, "lossless"); skip {
		t.Error("non-h264 input should not skip")
	}

	if skip, _ := ShouldSkip(efficient, "aggressive"); skip {
		t.Error("aggressive level never skips")
	}

	if skip, msg := ShouldSkip(nil, "lossless"); skip || msg == "" {
		t.Errorf("nil analysis: skip=%v msg=%q", skip, msg)
	}
}

func TestBuildArgsH264(t *testing.T) {
	s := SettingsFor("balanced", 1920, 1080)
	args := strings.Join(BuildArgs("in.mp4", "out.mp4", "h264", "balanced", s, 1080), " ")

	for _, want := range []string{
		"-c:v libx264",
		"-preset medium",
		"-profile:v high",
		"-level:v 4.1",
		"-b:v 4000k",
		"-maxrate 6000k",
		"-bufsize 8000k",
		"-crf 20",
		"-tune film",
		"-movflags +faststart",
		"-c:a aac -b:a 96k -ac 2",
		"-err_detect ignore_err",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
	if strings.Contains(args, "scale=") {
		t.Errorf("1080p source should not be scaled: %s", args)
	}
}

func TestBuildArgsDownscalesAbove1080p(t *testing.T) {
	s := SettingsFor("youtube", 3840, 2160)
	args := strings.Join(BuildArgs("in.mp4", "out.mp4", "h264", "youtube", s, 2160), " ")
	if !strings.Contains(args, "-vf scale=-2:1080") {
		t.Errorf("4K youtube should downscale: %s", args)
	}
	if !strings.Contains(args, "-r 30") {
		t.Errorf("youtube should cap fps: %s", args)
	}

	// balanced keeps the source resolution even at 4K
	s = SettingsFor("balanced", 3840, 2160)
	args = strings.Join(BuildArgs("in.mp4", "out.mp4", "h264", "balanced", s, 2160), " ")
	if strings.Contains(args, "scale=") {
		t.Errorf("balanced should not downscale: %s", args)
	}
}

func TestBuildArgsVP9(t *testing.T) {
	s := SettingsFor("lossless", 1920, 1080)
	args := strings.Join(BuildArgs("in.webm", "out.webm", "vp9", "lossless", s, 1080), " ")
	for _, want := range []string{"-c:v libvpx-vp9", "-row-mt 1", "-crf 18 -b:v 0", "-c:a aac -b:a 128k"} {
		if !strings.Contains(args, want) {
			t.Errorf("vp9 args missing %q: %s", want, args)
		}
	}
	if strings.Contains(args, "faststart") {
		t.Errorf("vp9 should not set movflags: %s", args)
	}
}

func TestBuildArgsH265(t *testing.T) {
	s := SettingsFor("high_quality", 1920, 1080)
	args := strings.Join(BuildArgs("in.mp4", "out.mp4", "h265", "high_quality", s, 1080), " ")
	for _, want := range []string{"-c:v libx265", "-profile:v main", "-crf 20", "-c:a aac -b:a 128k"} {
		if !strings.Contains(args, want) {
			t.Errorf("h265 args missing %q: %s", want, args)
		}
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("movie.avi", "h264"); got != "movie_compressed.mp4" {
		t.Errorf("got %q", got)
	}
	if got := OutputName("clip.mp4", "vp9"); got != "clip_compressed.webm" {
		t.Errorf("got %q", got)
	}
}
