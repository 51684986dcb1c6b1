package video

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/alerts"
	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
)

// CompressFile runs one file of a job through ffmpeg, updating the job
// store as it goes. inputPath/outputPath live in the job's work dirs.
func CompressFile(ctx context.Context, jobID string, file *store.JobFile, inputPath, outputPath, codec, level string) {
	short := shortID(jobID)

	fail := func(err error) {
		log.Printf("[%s] %s failed: %v", short, file.Name, err)
		alerts.VideoJobFailed(jobID, file.Name, err)
		store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
			f.Status = store.FileError
			f.Error = err.Error()
			f.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		})
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		fail(fmt.Errorf("input file missing: %w", err))
		return
	}
	originalSize := info.Size()
	modTime := info.ModTime()

	store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
		f.Status = store.FileAnalyzing
		f.Progress = 5
		f.OriginalSize = originalSize
	})

	analysis, probeErr := Probe(inputPath)
	if probeErr != nil {
		log.Printf("[%s] probe failed for %s: %v", short, file.Name, probeErr)
	}

	skip, analysisMsg := ShouldSkip(analysis, level)
	store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
		f.Analysis = analysis
		f.Message = analysisMsg
	})

	if skip {
		if err := copyFile(inputPath, outputPath); err != nil {
			fail(err)
			return
		}
		os.Chtimes(outputPath, modTime, modTime)
		store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
			f.Status = store.FileSkipped
			f.Progress = 100
			f.CompressedSize = originalSize
			f.Ratio = 0
			f.Message = "Compression skipped - file already optimally compressed"
			f.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		})
		log.Printf("[%s] %s skipped (%s)", short, file.Name, analysisMsg)
		return
	}

	store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
		f.Status = store.FileProcessing
		f.Progress = 10
	})

	width, height := 1920, 1080
	duration := 0.0
	if analysis != nil {
		width, height = analysis.Width, analysis.Height
		duration = analysis.Duration
	}

	settings := SettingsFor(level, width, height)
	args := BuildArgs(inputPath, outputPath, codec, level, settings, height)

	runCtx, cancel := context.WithTimeout(ctx, config.VideoProcessTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "ffmpeg", args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		fail(err)
		return
	}
	if err := cmd.Start(); err != nil {
		fail(fmt.Errorf("ffmpeg: %w", err))
		return
	}

	go trackProgress(stderr, jobID, file.Name, duration)

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if runCtx.Err() == context.DeadlineExceeded {
			fail(fmt.Errorf("ffmpeg timed out after %s", config.VideoProcessTimeout))
		} else {
			fail(fmt.Errorf("ffmpeg: %w", err))
		}
		return
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		fail(fmt.Errorf("output file missing: %w", err))
		return
	}
	compressedSize := outInfo.Size()

	message := "Compression completed successfully"
	ratio := 0.0
	if compressedSize >= originalSize && level != "lossless" && level != "high_quality" {
		os.Remove(outputPath)
		if err := copyFile(inputPath, outputPath); err != nil {
			fail(err)
			return
		}
		compressedSize = originalSize
		message = "Original file kept - compression didn't reduce size"
	} else {
		ratio = math.Round(float64(originalSize-compressedSize)/float64(originalSize)*10000) / 100
	}

	os.Chtimes(outputPath, modTime, modTime)

	store.Jobs.UpdateFile(jobID, file.Name, func(f *store.JobFile) {
		f.Status = store.FileDone
		f.Progress = 100
		f.CompressedSize = compressedSize
		f.Ratio = ratio
		f.Message = message
		f.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	})
	log.Printf("[%s] %s done: %d -> %d bytes (%.1f%%)", short, file.Name, originalSize, compressedSize, ratio)
}

// trackProgress follows ffmpeg's stderr, picking up Duration: when the
// probe didn't supply one and time= for progress.
func trackProgress(r io.Reader, jobID, name string, duration float64) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			line := string(buf[:n])
			if duration <= 0 {
				if d, ok := parseDurationLine(line); ok {
					duration = d
				}
			}
			if duration > 0 {
				if t, ok := parseTimeLine(line); ok {
					progress := 10 + int(t/duration*80)
					if progress > 90 {
						progress = 90
					}
					store.Jobs.SetProgress(jobID, name, progress)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func parseDurationLine(line string) (float64, bool) {
	_, after, ok := strings.Cut(line, "Duration: ")
	if !ok {
		return 0, false
	}
	ts, _, _ := strings.Cut(after, ",")
	return parseTimestamp(strings.TrimSpace(ts))
}

func parseTimeLine(line string) (float64, bool) {
	_, after, ok := strings.Cut(line, "time=")
	if !ok {
		return 0, false
	}
	ts := strings.Fields(after)
	if len(ts) == 0 {
		return 0, false
	}
	return parseTimestamp(ts[0])
}

func parseTimestamp(ts string) (float64, bool) {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + s, true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
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
