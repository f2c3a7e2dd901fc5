package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *Dir) {
	t.Helper()
	d := newTestDir(t)
	validator := NewValidator(1<<20, []string{"csv"})
	limiter := NewOpLimiter(2, time.Second)
	return NewService(d, validator, limiter), d
}

func TestService_UploadBatch(t *testing.T) {
	svc, d := newTestService(t)

	outcomes, err := svc.UploadBatch(context.Background(), []IncomingFile{
		{Name: "good.csv", Data: []byte("a,b\n1,2\n")},
		{Name: "notes.txt", Data: []byte("not a csv")},
		{Name: "blank.csv", Data: nil},
	})
	if err != nil {
		t.Fatalf("UploadBatch failed: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}

	if !outcomes[0].Accepted() {
		t.Errorf("good.csv rejected: %v", outcomes[0].Err)
	}
	if outcomes[0].StoredName != "good.csv" {
		t.Errorf("StoredName = %q, want good.csv", outcomes[0].StoredName)
	}
	if !errors.Is(outcomes[1].Err, ErrInvalidExtension) {
		t.Errorf("notes.txt error = %v, want ErrInvalidExtension", outcomes[1].Err)
	}
	if !errors.Is(outcomes[2].Err, ErrEmptyFile) {
		t.Errorf("blank.csv error = %v, want ErrEmptyFile", outcomes[2].Err)
	}

	// Only the accepted file was staged.
	files, err := d.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 || files[0].Name != "good.csv" {
		t.Errorf("staged files = %v, want [good.csv]", files)
	}

	// Only the accepted file shows up in the activity feed.
	recent := svc.Recent(0)
	if len(recent) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(recent))
	}
	if recent[0].Kind != ActivityUpload || recent[0].File != "good.csv" {
		t.Errorf("activity = %+v, want upload of good.csv", recent[0])
	}
}

func TestService_UploadBatch_SanitizesNames(t *testing.T) {
	svc, d := newTestService(t)

	outcomes, err := svc.UploadBatch(context.Background(), []IncomingFile{
		{Name: "my report.csv", Data: []byte("a\n1\n")},
		{Name: "../../etc/evil.csv", Data: []byte("a\n1\n")},
	})
	if err != nil {
		t.Fatalf("UploadBatch failed: %v", err)
	}

	if outcomes[0].StoredName != "my_report.csv" {
		t.Errorf("StoredName = %q, want my_report.csv", outcomes[0].StoredName)
	}
	if outcomes[1].StoredName != "etc_evil.csv" {
		t.Errorf("StoredName = %q, want etc_evil.csv", outcomes[1].StoredName)
	}

	files, err := d.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("staged %d files, want 2", len(files))
	}
}

func TestService_UploadBatch_LimiterBusy(t *testing.T) {
	d := newTestDir(t)
	validator := NewValidator(1<<20, []string{"csv"})
	limiter := NewOpLimiter(1, 50*time.Millisecond)
	svc := NewService(d, validator, limiter)

	// Hold the only slot so the batch cannot get one.
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed on fresh limiter")
	}
	defer limiter.Release()

	_, err := svc.UploadBatch(context.Background(), []IncomingFile{
		{Name: "a.csv", Data: []byte("a\n1\n")},
	})
	if !errors.Is(err, ErrTooManyOps) {
		t.Errorf("UploadBatch error = %v, want ErrTooManyOps", err)
	}

	// Nothing was staged while waiting.
	files, _ := d.List()
	if len(files) != 0 {
		t.Errorf("staged files = %v, want none", files)
	}
}

func TestService_Remove(t *testing.T) {
	svc, d := newTestService(t)

	if err := d.Put("notes.csv", []byte("a\n1\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := svc.Remove(context.Background(), "notes.csv"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	files, _ := d.List()
	if len(files) != 0 {
		t.Errorf("staged files = %v, want none", files)
	}

	recent := svc.Recent(1)
	if len(recent) != 1 || recent[0].Kind != ActivityRemove {
		t.Errorf("activity = %v, want a remove entry", recent)
	}
}

func TestService_Remove_SanitizesName(t *testing.T) {
	svc, d := newTestService(t)

	if err := d.Put("notes.csv", []byte("a\n1\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Traversal prefixes sanitize down to the staged name.
	if err := svc.Remove(context.Background(), "../notes.csv"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	files, _ := d.List()
	if len(files) != 0 {
		t.Errorf("staged files = %v, want none", files)
	}
}

func TestService_Remove_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "never staged", input: "ghost.csv"},
		{name: "sanitizes to nothing", input: "///"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Remove(context.Background(), tt.input)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Remove(%q) = %v, want ErrNotFound", tt.input, err)
			}
		})
	}
}

func TestService_Combine(t *testing.T) {
	svc, d := newTestService(t)

	if err := d.Put("a.csv", []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := d.Put("b.csv", []byte("a,b\n3,4\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	out, err := svc.Combine(context.Background())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if got, want := string(out.Data), "a,b\n1,2\n3,4\n"; got != want {
		t.Errorf("Data = %q, want %q", got, want)
	}

	recent := svc.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(recent))
	}
	if recent[0].Kind != ActivityCombine {
		t.Errorf("activity Kind = %q, want %q", recent[0].Kind, ActivityCombine)
	}
	if recent[0].Detail != "2 files, 2 rows" {
		t.Errorf("activity Detail = %q, want %q", recent[0].Detail, "2 files, 2 rows")
	}
}

func TestService_Combine_LimiterBusy(t *testing.T) {
	d := newTestDir(t)
	validator := NewValidator(1<<20, []string{"csv"})
	limiter := NewOpLimiter(1, 50*time.Millisecond)
	svc := NewService(d, validator, limiter)

	if err := d.Put("a.csv", []byte("a\n1\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed on fresh limiter")
	}
	defer limiter.Release()

	_, err := svc.Combine(context.Background())
	if !errors.Is(err, ErrTooManyOps) {
		t.Errorf("Combine error = %v, want ErrTooManyOps", err)
	}

	// The staged file survived the refused combine.
	files, _ := d.List()
	if len(files) != 1 {
		t.Errorf("staged files = %v, want [a.csv]", files)
	}
}

func TestService_ListFiles(t *testing.T) {
	svc, d := newTestService(t)

	files, err := svc.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("fresh area lists %d files, want 0", len(files))
	}

	if err := d.Put("a.csv", []byte("a\n1\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	files, err = svc.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].Name != "a.csv" {
		t.Errorf("ListFiles = %v, want [a.csv]", files)
	}
}

func TestService_LimiterStatus(t *testing.T) {
	svc, _ := newTestService(t)

	status := svc.LimiterStatus()
	if status.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", status.MaxConcurrent)
	}
	if status.Active != 0 {
		t.Errorf("Active = %d, want 0", status.Active)
	}
}
