package video

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/sanjayjain8513/vdo-image-app/internal/store"
)

type Settings struct {
	CRF        int
	Preset     string
	UseBitrate bool
	Bitrate    string
	Maxrate    string
	Bufsize    string
	FPSLimit   int
}

// SettingsFor picks encoder settings for a preset level, tiered by the
// source resolution.
func SettingsFor(level string, width, height int) Settings {
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	pixels := int64(width) * int64(height)

	switch level {
	case "lossless":
		crf := 16
		if pixels >= 1920*1080 {
			crf = 18
		}
		return Settings{CRF: crf, Preset: "slow"}

	case "high_quality":
		crf := 18
		if pixels >= 1920*1080 {
			crf = 20
		}
		return Settings{CRF: crf, Preset: "medium"}

	case "balanced":
		s := tiered(pixels, [5]tier{
			{"12000k", "18000k", "24000k", 22},
			{"6000k", "9000k", "12000k", 21},
			{"4000k", "6000k", "8000k", 20},
			{"2000k", "3000k", "4000k", 19},
			{"1000k", "1500k", "2000k", 18},
		})
		s.Preset = "medium"
		return s

	case "youtube":
		s := tiered(pixels, [5]tier{
			{"8000k", "12000k", "16000k", 24},
			{"4000k", "6000k", "8000k", 22},
			{"2000k", "3000k", "4000k", 21},
			{"1000k", "1500k", "2000k", 20},
			{"500k", "750k", "1000k", 19},
		})
		s.Preset = "slow"
		s.FPSLimit = 30
		return s

	case "aggressive":
		s := tiered(pixels, [5]tier{
			{"6000k", "9000k", "12000k", 26},
			{"3000k", "4500k", "6000k", 24},
			{"1500k", "2250k", "3000k", 23},
			{"800k", "1200k", "1600k", 22},
			{"400k", "600k", "800k", 21},
		})
		s.Preset = "slow"
		s.FPSLimit = 30
		return s

	case "maximum":
		s := tiered(pixels, [5]tier{
			{"4000k", "6000k", "8000k", 28},
			{"2000k", "3000k", "4000k", 26},
			{"1000k", "1500k", "2000k", 25},
			{"600k", "900k", "1200k", 24},
			{"300k", "450k", "600k", 23},
		})
		s.Preset = "slow"
		s.FPSLimit = 30
		return s
	}

	return SettingsFor("balanced", width, height)
}

type tier struct {
	bitrate, maxrate, bufsize string
	crf                       int
}

// Tiers run 4K, 1440p, 1080p, 720p, below.
func tiered(pixels int64, tiers [5]tier) Settings {
	var t tier
	switch {
	case pixels >= 3840*2160:
		t = tiers[0]
	case pixels >= 2560*1440:
		t = tiers[1]
	case pixels >= 1920*1080:
		t = tiers[2]
	case pixels >= 1280*720:
		t = tiers[3]
	default:
		t = tiers[4]
	}
	return Settings{
		CRF:        t.crf,
		UseBitrate: true,
		Bitrate:    t.bitrate,
		Maxrate:    t.maxrate,
		Bufsize:    t.bufsize,
	}
}

// ReasonableBitrate is the bits-per-second ceiling below which an
// already-encoded h264 file isn't worth re-encoding.
func ReasonableBitrate(width, height int) int {
	pixels := int64(width) * int64(height)
	switch {
	case pixels <= 640*480:
		return 1_000_000
	case pixels <= 1280*720:
		return 2_500_000
	case pixels <= 1920*1080:
		return 5_000_000
	case pixels <= 3840*2160:
		return 15_000_000
	default:
		return 25_000_000
	}
}

// ShouldSkip reports whether a lossless-level job can copy the input
// untouched because it's already efficiently compressed h264.
func ShouldSkip(a *store.VideoAnalysis, level string) (bool, string) {
	if level != "lossless" && level != "high_quality" {
		return false, "Processing with compression"
	}
	if a == nil {
		return false, "Unable to analyze - proceeding with compression"
	}

	codec := a.Codec
	if level == "lossless" && (codec == "h264" || codec == "x264" || codec == "avc1") && a.BitrateK > 0 {
		reasonable := ReasonableBitrate(a.Width, a.Height)
		if a.BitrateK*1000 <= reasonable+reasonable/10 {
			return true, fmt.Sprintf("Already efficiently compressed (%dkbps)", a.BitrateK)
		}
	}
	return false, "Will compress to optimize quality/size ratio"
}

// BuildArgs assembles the full ffmpeg argument list for one file.
func BuildArgs(inputPath, outputPath, codec, level string, s Settings, sourceHeight int) []string {
	args := []string{"-i", inputPath, "-y"}

	switch codec {
	case "h264":
		args = append(args, "-c:v", "libx264", "-preset", s.Preset, "-profile:v", "high", "-level:v", "4.1")
		args = appendRateArgs(args, s)
		if s.Preset != "ultrafast" && s.Preset != "superfast" {
			args = append(args, "-tune", "film")
		}
		args = append(args, "-movflags", "+faststart")

	case "h265":
		args = append(args, "-c:v", "libx265", "-preset", s.Preset, "-profile:v", "main")
		args = appendRateArgs(args, s)
		args = append(args, "-movflags", "+faststart")

	case "vp9":
		args = append(args, "-c:v", "libvpx-vp9", "-row-mt", "1")
		if s.UseBitrate {
			args = append(args, "-b:v", s.Bitrate, "-maxrate", s.Maxrate, "-bufsize", s.Bufsize)
		} else {
			args = append(args, "-crf", strconv.Itoa(s.CRF), "-b:v", "0")
		}
	}

	if s.FPSLimit > 0 {
		args = append(args, "-r", strconv.Itoa(s.FPSLimit))
	}

	if sourceHeight > 1080 && (level == "youtube" || level == "aggressive" || level == "maximum") {
		args = append(args, "-vf", "scale=-2:1080")
	}

	if level == "lossless" || level == "high_quality" {
		args = append(args, "-c:a", "aac", "-b:a", "128k")
	} else {
		args = append(args, "-c:a", "aac", "-b:a", "96k", "-ac", "2")
	}

	threads := runtime.NumCPU()
	if threads > 8 {
		threads = 8
	}
	args = append(args, "-threads", strconv.Itoa(threads), "-err_detect", "ignore_err")

	return append(args, outputPath)
}

func appendRateArgs(args []string, s Settings) []string {
	if s.UseBitrate {
		args = append(args, "-b:v", s.Bitrate, "-maxrate", s.Maxrate, "-bufsize", s.Bufsize)
	}
	if s.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(s.CRF))
	}
	return args
}
