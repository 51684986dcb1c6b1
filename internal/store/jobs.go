package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

const (
	FileQueued     = "queued"
	FileAnalyzing  = "analyzing"
	FileProcessing = "processing"
	FileDone       = "done"
	FileSkipped    = "skipped"
	FileError      = "error"
)

type VideoAnalysis struct {
	Codec    string  `json:"codec"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	BitrateK int     `json:"bitrate_kbps"`
	FPS      float64 `json:"fps"`
	HasAudio bool    `json:"has_audio"`
}

type JobFile struct {
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	Progress       int            `json:"progress"`
	OriginalSize   int64          `json:"original_size"`
	CompressedSize int64          `json:"compressed_size,omitempty"`
	Ratio          float64        `json:"ratio,omitempty"`
	Message        string         `json:"message,omitempty"`
	Error          string         `json:"error,omitempty"`
	CompletedAt    string         `json:"completed_at,omitempty"`
	Analysis       *VideoAnalysis `json:"analysis,omitempty"`
}

type Job struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner"`
	Preset    string     `json:"preset"`
	Codec     string     `json:"codec"`
	Status    string     `json:"status"`
	CreatedAt string     `json:"created_at"`
	Files     []*JobFile `json:"files"`
}

func (j *Job) FileByName(name string) *JobFile {
	for _, f := range j.Files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// settle recomputes the job status from its files.
func (j *Job) settle() {
	done, failed := 0, 0
	for _, f := range j.Files {
		switch f.Status {
		case FileDone, FileSkipped:
			done++
		case FileError:
			failed++
		}
	}
	switch {
	case done+failed < len(j.Files):
		j.Status = "processing"
	case failed == len(j.Files):
		j.Status = "error"
	default:
		j.Status = "done"
	}
}

// JobStore keeps video jobs in video_jobs.json, rewritten on every
// mutation.
type JobStore struct {
	mu   sync.RWMutex
	path string
	jobs map[string]*Job
}

func OpenJobStore(path string) (*JobStore, error) {
	s := &JobStore{path: path, jobs: make(map[string]*Job)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.jobs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Anything that was mid-flight when the process died can't resume.
	demoted := 0
	for _, job := range s.jobs {
		for _, f := range job.Files {
			switch f.Status {
			case FileQueued, FileAnalyzing, FileProcessing:
				f.Status = FileError
				f.Error = "interrupted by restart"
				demoted++
			}
		}
		job.settle()
	}
	if demoted > 0 {
		log.Printf("[Jobs] Marked %d in-flight files as interrupted after restart", demoted)
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *JobStore) save() error {
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JobStore) Put(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.CreatedAt == "" {
		job.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.jobs[job.ID] = job
	return s.save()
}

// Get returns a deep copy so callers can't race the worker.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	cp.Files = make([]*JobFile, len(job.Files))
	for i, f := range job.Files {
		fc := *f
		if f.Analysis != nil {
			ac := *f.Analysis
			fc.Analysis = &ac
		}
		cp.Files[i] = &fc
	}
	return &cp, true
}

// ListByOwner returns deep copies of a user's jobs, newest first.
func (s *JobStore) ListByOwner(owner string) []*Job {
	s.mu.RLock()
	ids := make([]string, 0, len(s.jobs))
	for id, job := range s.jobs {
		if job.Owner == owner {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		if job, ok := s.Get(id); ok {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (s *JobStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("job %q not found", id)
	}
	delete(s.jobs, id)
	return s.save()
}

func (s *JobStore) Count() (total, active int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.jobs {
		total++
		if job.Status == "processing" || job.Status == "queued" {
			active++
		}
	}
	return
}

// UpdateFile applies fn to one file under the store lock and persists
// the result.
func (s *JobStore) UpdateFile(jobID, name string, fn func(*JobFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %q not found", jobID)
	}
	f := job.FileByName(name)
	if f == nil {
		return fmt.Errorf("file %q not in job %s", name, jobID)
	}
	fn(f)
	job.settle()
	return s.save()
}

// SetProgress skips the disk write for intermediate progress ticks,
// only terminal transitions need to survive a crash.
func (s *JobStore) SetProgress(jobID, name string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if f := job.FileByName(name); f != nil {
		f.Progress = progress
	}
}

var Jobs *JobStore

func InitJobs() error {
	s, err := OpenJobStore(config.VideoJobsFile())
	if err != nil {
		return err
	}
	Jobs = s
	return nil
}
