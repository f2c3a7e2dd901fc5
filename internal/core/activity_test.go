package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestActivityLog_RecordAndRecent(t *testing.T) {
	log := NewActivityLog(10)

	log.Record(ActivityUpload, "a.csv", "1.0 KiB")
	log.Record(ActivityRemove, "b.csv", "")
	log.Record(ActivityCombine, "combined_output.csv", "2 files, 10 rows")

	recent := log.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Recent(0) returned %d entries, want 3", len(recent))
	}

	// Newest first.
	if recent[0].Kind != ActivityCombine {
		t.Errorf("recent[0].Kind = %q, want %q", recent[0].Kind, ActivityCombine)
	}
	if recent[1].Kind != ActivityRemove {
		t.Errorf("recent[1].Kind = %q, want %q", recent[1].Kind, ActivityRemove)
	}
	if recent[2].Kind != ActivityUpload {
		t.Errorf("recent[2].Kind = %q, want %q", recent[2].Kind, ActivityUpload)
	}

	for i, entry := range recent {
		if entry.ID == uuid.Nil {
			t.Errorf("recent[%d].ID is nil", i)
		}
		if entry.At.IsZero() {
			t.Errorf("recent[%d].At is zero", i)
		}
	}
}

func TestActivityLog_RecentLimit(t *testing.T) {
	log := NewActivityLog(10)
	for i := 0; i < 5; i++ {
		log.Record(ActivityUpload, fmt.Sprintf("file-%d.csv", i), "")
	}

	recent := log.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(recent))
	}
	if recent[0].File != "file-4.csv" {
		t.Errorf("recent[0].File = %q, want file-4.csv", recent[0].File)
	}
	if recent[1].File != "file-3.csv" {
		t.Errorf("recent[1].File = %q, want file-3.csv", recent[1].File)
	}
}

func TestActivityLog_EvictsOldest(t *testing.T) {
	log := NewActivityLog(3)
	for i := 0; i < 5; i++ {
		log.Record(ActivityUpload, fmt.Sprintf("file-%d.csv", i), "")
	}

	if got := log.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	recent := log.Recent(0)
	for _, entry := range recent {
		if entry.File == "file-0.csv" || entry.File == "file-1.csv" {
			t.Errorf("evicted entry %q still present", entry.File)
		}
	}
	if recent[0].File != "file-4.csv" {
		t.Errorf("recent[0].File = %q, want file-4.csv", recent[0].File)
	}
}

func TestActivityLog_EmptyRecent(t *testing.T) {
	log := NewActivityLog(10)

	if got := log.Recent(5); len(got) != 0 {
		t.Errorf("Recent on empty log returned %d entries", len(got))
	}
	if got := log.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestActivityLog_ConcurrentRecord(t *testing.T) {
	log := NewActivityLog(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Record(ActivityUpload, fmt.Sprintf("file-%d.csv", n), "")
		}(i)
	}
	wg.Wait()

	if got := log.Len(); got != 50 {
		t.Errorf("Len() = %d, want 50", got)
	}
}

func TestNewActivityLog_DefaultCap(t *testing.T) {
	log := NewActivityLog(0)
	for i := 0; i < DefaultActivityCap+5; i++ {
		log.Record(ActivityRemove, "x.csv", "")
	}
	if got := log.Len(); got != DefaultActivityCap {
		t.Errorf("Len() = %d, want %d", got, DefaultActivityCap)
	}
}
