package store

import (
	"path/filepath"
	"testing"
)

func TestJobStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video_jobs.json")
	s, err := OpenJobStore(path)
	if err != nil {
		t.Fatal(err)
	}

	job := &Job{
		ID:     "job-1",
		Preset: "balanced",
		Codec:  "h264",
		Status: "processing",
		Files: []*JobFile{
			{Name: "a.mp4", Status: FileQueued, OriginalSize: 1000},
			{Name: "b.mp4", Status: FileQueued, OriginalSize: 2000},
		},
	}
	if err := s.Put(job); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get("job-1")
	if !ok {
		t.Fatal("job missing")
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt not stamped")
	}
	if len(got.Files) != 2 {
		t.Fatalf("files = %d", len(got.Files))
	}

	// mutating the copy must not touch the store
	got.Files[0].Status = FileDone
	again, _ := s.Get("job-1")
	if again.Files[0].Status != FileQueued {
		t.Error("Get returned a shared reference")
	}
}

func TestJobStoreUpdateFileSettlesStatus(t *testing.T) {
	s, _ := OpenJobStore(filepath.Join(t.TempDir(), "jobs.json"))
	job := &Job{ID: "j", Status: "processing", Files: []*JobFile{
		{Name: "a.mp4", Status: FileQueued},
		{Name: "b.mp4", Status: FileQueued},
	}}
	s.Put(job)

	s.UpdateFile("j", "a.mp4", func(f *JobFile) { f.Status = FileDone })
	got, _ := s.Get("j")
	if got.Status != "processing" {
		t.Errorf("status = %q, want processing with one file pending", got.Status)
	}

	s.UpdateFile("j", "b.mp4", func(f *JobFile) { f.Status = FileSkipped })
	got, _ = s.Get("j")
	if got.Status != "done" {
		t.Errorf("status = %q, want done", got.Status)
	}

	if err := s.UpdateFile("j", "missing.mp4", func(f *JobFile) {}); err == nil {
		t.Error("unknown file should error")
	}
	if err := s.UpdateFile("ghost", "a.mp4", func(f *JobFile) {}); err == nil {
		t.Error("unknown job should error")
	}
}

func TestJobStoreAllFailed(t *testing.T) {
	s, _ := OpenJobStore(filepath.Join(t.TempDir(), "jobs.json"))
	s.Put(&Job{ID: "j", Status: "processing", Files: []*JobFile{{Name: "a.mp4", Status: FileQueued}}})
	s.UpdateFile("j", "a.mp4", func(f *JobFile) { f.Status = FileError; f.Error = "boom" })
	got, _ := s.Get("j")
	if got.Status != "error" {
		t.Errorf("status = %q, want error", got.Status)
	}
}

func TestJobStoreReopenDemotesInFlight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s, _ := OpenJobStore(path)
	s.Put(&Job{ID: "j", Status: "processing", Files: []*JobFile{
		{Name: "a.mp4", Status: FileProcessing, Progress: 40},
		{Name: "b.mp4", Status: FileDone},
	}})

	s2, err := OpenJobStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := s2.Get("j")
	if !ok {
		t.Fatal("job lost across reopen")
	}
	a := got.FileByName("a.mp4")
	if a.Status != FileError || a.Error != "interrupted by restart" {
		t.Errorf("in-flight file after reopen: %+v", a)
	}
	if got.FileByName("b.mp4").Status != FileDone {
		t.Error("finished file should be untouched")
	}
	if got.Status != "done" && got.Status != "error" {
		t.Errorf("job status = %q, want settled", got.Status)
	}
}

func TestJobStoreDeleteAndCount(t *testing.T) {
	s, _ := OpenJobStore(filepath.Join(t.TempDir(), "jobs.json"))
	s.Put(&Job{ID: "a", Status: "processing", Files: []*JobFile{{Name: "x.mp4", Status: FileQueued}}})
	s.Put(&Job{ID: "b", Status: "done", Files: []*JobFile{{Name: "y.mp4", Status: FileDone}}})

	total, active := s.Count()
	if total != 2 || active != 1 {
		t.Errorf("count = %d/%d, want 2/1", total, active)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err == nil {
		t.Error("double delete should error")
	}
	total, _ = s.Count()
	if total != 1 {
		t.Errorf("total = %d after delete", total)
	}
}
