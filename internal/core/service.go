package core

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/CsvCombine/internal/logging"
)

// Service provides the core business logic for staging and combining CSV
// files. It is the single entry point the web layer calls.
type Service struct {
	store    Store
	validate *Validator
	combiner *Combiner
	limiter  *OpLimiter
	activity *ActivityLog
}

// NewService wires a service over the given store. The validator decides
// what may enter the staging area; the limiter bounds concurrent uploads
// and combines.
func NewService(store Store, validate *Validator, limiter *OpLimiter) *Service {
	return &Service{
		store:    store,
		validate: validate,
		combiner: NewCombiner(store),
		limiter:  limiter,
		activity: NewActivityLog(DefaultActivityCap),
	}
}

// ListFiles returns the current staging-area listing, sorted by name.
func (s *Service) ListFiles(ctx context.Context) ([]StagedFile, error) {
	return s.store.List()
}

// UploadBatch validates and stages every file in the batch. Per-file
// failures are soft: they land in that file's outcome and the rest of the
// batch continues. The returned error reports only a failure to obtain an
// operation slot (system busy, caller gone).
func (s *Service) UploadBatch(ctx context.Context, files []IncomingFile) ([]UploadOutcome, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	logger := logging.FromContext(ctx)

	outcomes := make([]UploadOutcome, 0, len(files))
	for _, f := range files {
		outcome := UploadOutcome{
			OriginalName: f.Name,
			Size:         int64(len(f.Data)),
		}

		stored, err := s.validate.Validate(f.Name, f.Data)
		if err == nil {
			outcome.StoredName = stored
			err = s.store.Put(stored, f.Data)
		}

		if err != nil {
			outcome.Err = err
			logger.Warn("upload rejected", "file", f.Name, "error", err)
		} else {
			logger.Info("file staged", "file", stored, "size", outcome.Size)
			s.activity.Record(ActivityUpload, stored, humanize.IBytes(uint64(outcome.Size)))
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// Remove deletes one staged file. The name is sanitized the same way
// uploads are, so a route parameter cannot address anything outside the
// staging area.
func (s *Service) Remove(ctx context.Context, name string) error {
	clean := SanitizeFilename(name)
	if clean == "" {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	if err := s.store.Remove(clean); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("file removed", "file", clean)
	s.activity.Record(ActivityRemove, clean, "")
	return nil
}

// Combine merges every staged file into one download and clears the
// staging area on success. All failure modes leave the area untouched.
func (s *Service) Combine(ctx context.Context) (*CombineOutput, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	out, err := s.combiner.Combine(ctx)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ActivityCombine, out.Filename,
		fmt.Sprintf("%d files, %d rows", out.FileCount, out.RowCount))
	return out, nil
}

// Recent returns up to n recent activity entries, newest first.
func (s *Service) Recent(n int) []Activity {
	return s.activity.Recent(n)
}

// LimiterStatus exposes the limiter snapshot for health reporting.
func (s *Service) LimiterStatus() OpLimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight uploads and combines finish or the
// context is cancelled. Called during graceful shutdown.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
