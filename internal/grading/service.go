package grading

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"school-quiz-service/internal/domain"
)

const defaultBatchSize = 100

// ResultRepository stores per-applicant grading rows for one year.
type ResultRepository interface {
	ListByYear(ctx context.Context, year int) ([]domain.Result, error)
	Upsert(ctx context.Context, result domain.Result) error
}

// Notifier broadcasts a best-effort "results changed" signal so cached
// admin lists can refresh. Correctness never depends on delivery.
type Notifier interface {
	ResultsChanged(ctx context.Context, year int)
}

// BatchReport aggregates per-row failures of a regrade or recompute run.
// The batch continues past individual row errors; callers get the count
// and the first few messages instead of an abort on first failure.
type BatchReport struct {
	Updated  int      `json:"updated"`
	Failed   int      `json:"failed"`
	Messages []string `json:"messages,omitempty"`
}

const maxReportedMessages = 5

// Err returns a single error summarizing the report, nil when everything
// was persisted.
func (r BatchReport) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d rows failed: %s",
		domain.ErrStorageUnavailable, r.Failed, r.Updated+r.Failed, strings.Join(r.Messages, "; "))
}

// Service runs the regrade and z-score/rank pipelines over the result
// store. Row updates within a batch are independent, so they are issued in
// bounded-size parallel chunks purely for throughput.
type Service struct {
	results   ResultRepository
	notifier  Notifier
	batchSize int
}

func NewService(results ResultRepository, notifier Notifier, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Service{results: results, notifier: notifier, batchSize: batchSize}
}

// ApplyRanges validates the boundaries, regrades every result row of the
// year for the subject ("all" broadcasts to every subject) and persists
// the rows in bounded batches. The regrade is all-or-nothing in intent:
// nothing is written when validation fails, and partial persistence
// failures are reported in aggregate so the caller can retry.
func (s *Service) ApplyRanges(ctx context.Context, year int, subject domain.Subject, ranges domain.GradeRanges) (BatchReport, error) {
	if err := ValidateRanges(ranges); err != nil {
		return BatchReport{}, err
	}
	if subject != domain.SubjectAll {
		valid := false
		for _, known := range domain.Subjects() {
			if subject == known {
				valid = true
				break
			}
		}
		if !valid {
			return BatchReport{}, fmt.Errorf("%w: unknown subject %q", domain.ErrValidation, subject)
		}
	}

	results, err := s.results.ListByYear(ctx, year)
	if err != nil {
		return BatchReport{}, fmt.Errorf("%w: list results: %v", domain.ErrStorageUnavailable, err)
	}

	for i := range results {
		Regrade(&results[i], subject, ranges)
	}
	// Grades feed totals only indirectly, but ranks and z-scores are
	// documented to refresh with every regrade.
	ComputeZScores(results)

	report := s.persistAll(ctx, results)
	s.notify(ctx, year)
	return report, report.Err()
}

// Recompute refreshes z-scores and stream ranks for a year, invoked after
// any marks change.
func (s *Service) Recompute(ctx context.Context, year int) (BatchReport, error) {
	results, err := s.results.ListByYear(ctx, year)
	if err != nil {
		return BatchReport{}, fmt.Errorf("%w: list results: %v", domain.ErrStorageUnavailable, err)
	}

	ComputeZScores(results)

	report := s.persistAll(ctx, results)
	s.notify(ctx, year)
	return report, report.Err()
}

// SaveMarks upserts edited or imported marks and immediately triggers the
// year's recompute; marks never change without a recompute following.
// Rows already graded keep their grades and boundary copies: new marks are
// merged into the stored row and regraded under the boundaries it carries.
func (s *Service) SaveMarks(ctx context.Context, rows []domain.Result) (BatchReport, error) {
	if len(rows) == 0 {
		return BatchReport{}, fmt.Errorf("%w: no rows to save", domain.ErrValidation)
	}
	year := rows[0].Year
	for _, row := range rows {
		if !row.Stream.Valid() {
			return BatchReport{}, fmt.Errorf("%w: row %q has unknown stream %q", domain.ErrValidation, row.IndexNo, row.Stream)
		}
		if row.Year != year {
			return BatchReport{}, fmt.Errorf("%w: row %q year %d differs from batch year %d", domain.ErrValidation, row.IndexNo, row.Year, year)
		}
	}

	existing, err := s.results.ListByYear(ctx, year)
	if err != nil {
		return BatchReport{}, fmt.Errorf("%w: list results: %v", domain.ErrStorageUnavailable, err)
	}
	byIndex := make(map[string]domain.Result, len(existing))
	for _, row := range existing {
		byIndex[row.IndexNo] = row
	}
	merged := make([]domain.Result, len(rows))
	for i, row := range rows {
		merged[i] = mergeMarks(byIndex[row.IndexNo], row)
	}

	report := s.persistAll(ctx, merged)
	if report.Failed > 0 {
		return report, report.Err()
	}
	return s.Recompute(ctx, year)
}

// mergeMarks overlays incoming marks onto a stored row and regrades every
// subject whose boundaries are denormalized on it, so an edited mark gets
// a fresh grade under the same boundaries instead of wiping grading state.
func mergeMarks(existing, incoming domain.Result) domain.Result {
	existing.IndexNo = incoming.IndexNo
	existing.Year = incoming.Year
	existing.Stream = incoming.Stream
	existing.Marks = incoming.Marks
	if existing.Grades == nil && len(existing.Ranges) > 0 {
		existing.Grades = make(map[domain.Subject]domain.Grade, len(existing.Ranges))
	}
	for subject, r := range existing.Ranges {
		existing.Grades[subject] = GradeFromMark(existing.Mark(subject), r)
	}
	return existing
}

// persistAll writes rows in parallel chunks of batchSize, collecting
// per-row failures instead of aborting.
func (s *Service) persistAll(ctx context.Context, rows []domain.Result) BatchReport {
	var (
		mu     sync.Mutex
		report BatchReport
	)

	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, row := range rows[start:end] {
			row := row
			g.Go(func() error {
				if err := s.results.Upsert(gctx, row); err != nil {
					mu.Lock()
					report.Failed++
					if len(report.Messages) < maxReportedMessages {
						report.Messages = append(report.Messages, fmt.Sprintf("%s/%d: %v", row.IndexNo, row.Year, err))
					}
					mu.Unlock()
					return nil // keep going; failures are aggregated
				}
				mu.Lock()
				report.Updated++
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
	return report
}

func (s *Service) notify(ctx context.Context, year int) {
	if s.notifier == nil {
		return
	}
	s.notifier.ResultsChanged(ctx, year)
}
