package video

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/sanjayjain8513/vdo-image-app/internal/alerts"
	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/sysinfo"
)

type task struct {
	jobID     string
	file      *store.JobFile
	inputDir  string
	outputDir string
	codec     string
	level     string
}

const queueCapacity = 100

var taskCh chan task

func StartWorkers() {
	taskCh = make(chan task, queueCapacity)
	for i := 0; i < config.VideoMaxWorkers; i++ {
		go worker(i)
	}
	log.Printf("[Video] Started %d workers", config.VideoMaxWorkers)
}

func worker(n int) {
	for t := range taskCh {
		inputPath := filepath.Join(t.inputDir, t.file.Name)
		outputPath := filepath.Join(t.outputDir, OutputName(t.file.Name, t.codec))
		log.Printf("[Video] worker %d picked up %s/%s", n, shortID(t.jobID), t.file.Name)
		CompressFile(context.Background(), t.jobID, t.file, inputPath, outputPath, t.codec, t.level)
	}
}

// Enqueue queues every file of a job. Fails fast when the queue has no
// room rather than blocking the upload request.
func Enqueue(job *store.Job, inputDir, outputDir string) error {
	for _, f := range job.Files {
		select {
		case taskCh <- task{
			jobID:     job.ID,
			file:      f,
			inputDir:  inputDir,
			outputDir: outputDir,
			codec:     job.Codec,
			level:     job.Preset,
		}:
		default:
			return fmt.Errorf("too many active video jobs, try again later")
		}
	}
	return nil
}

type JobCheck struct {
	OK     bool
	Reason string
}

// CanStartJob gates new uploads on disk and memory headroom, matching
// the checks the workers rely on.
func CanStartJob() JobCheck {
	if ds, err := sysinfo.GetDiskSpace(config.OutputDir); err == nil {
		if ds.AvailGB < float64(config.DiskSpaceMinGB) {
			alerts.LowDiskSpace(ds.AvailGB)
			return JobCheck{false, fmt.Sprintf("Low disk space (%.1fGB free, need %dGB)", ds.AvailGB, config.DiskSpaceMinGB)}
		}
	}
	if avail := sysinfo.AvailableMemoryMB(); avail > 0 && avail < config.MinFreeMemoryMB {
		alerts.LowMemory(avail)
		return JobCheck{false, fmt.Sprintf("Low memory (%dMB available, need %dMB)", avail, config.MinFreeMemoryMB)}
	}
	return JobCheck{true, ""}
}

// OutputName maps an upload to its compressed filename. vp9 output
// goes into webm, everything else stays mp4.
func OutputName(name, codec string) string {
	base := name[:len(name)-len(filepath.Ext(name))]
	if codec == "vp9" {
		return base + "_compressed.webm"
	}
	return base + "_compressed.mp4"
}
