package grading

import (
	"math"
	"testing"

	"school-quiz-service/internal/domain"
)

func resultRow(indexNo string, stream domain.Stream, streamMark, physics, chemistry *float64) domain.Result {
	return domain.Result{
		IndexNo: indexNo,
		Year:    2026,
		Stream:  stream,
		Marks: map[domain.Subject]*float64{
			domain.StreamSubject(stream): streamMark,
			domain.SubjectPhysics:        physics,
			domain.SubjectChemistry:      chemistry,
		},
	}
}

func TestZScoresWithinStream(t *testing.T) {
	results := []domain.Result{
		resultRow("m1", domain.StreamMaths, mark(80), mark(70), mark(60)), // total 210
		resultRow("m2", domain.StreamMaths, mark(50), mark(50), mark(50)), // total 150
	}

	ComputeZScores(results)

	// mean 180, population std 30: z = ±1.
	if math.Abs(results[0].ZScore-1) > 1e-9 || math.Abs(results[1].ZScore+1) > 1e-9 {
		t.Fatalf("expected z-scores +1/-1, got %f/%f", results[0].ZScore, results[1].ZScore)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Fatalf("expected ranks 1/2, got %d/%d", results[0].Rank, results[1].Rank)
	}
}

func TestZScoreStreamsAreIsolated(t *testing.T) {
	bio := resultRow("b1", domain.StreamBiology, mark(60), mark(60), mark(60))
	results := []domain.Result{
		resultRow("m1", domain.StreamMaths, mark(80), mark(70), mark(60)),
		resultRow("m2", domain.StreamMaths, mark(50), mark(50), mark(50)),
		bio,
		resultRow("b2", domain.StreamBiology, mark(40), mark(40), mark(40)),
	}
	ComputeZScores(results)
	bioZBefore := results[2].ZScore

	// Change a maths-stream mark; biology z-scores must not move.
	results[0].Marks[domain.SubjectMaths] = mark(100)
	ComputeZScores(results)

	if results[2].ZScore != bioZBefore {
		t.Fatalf("biology z-score moved with a maths mark: %f vs %f", results[2].ZScore, bioZBefore)
	}
}

func TestIncompleteMarksExcludedFromStatistics(t *testing.T) {
	results := []domain.Result{
		resultRow("m1", domain.StreamMaths, mark(80), mark(70), mark(60)),
		resultRow("m2", domain.StreamMaths, mark(50), mark(50), mark(50)),
		resultRow("m3", domain.StreamMaths, mark(90), nil, mark(90)), // missing physics
	}

	ComputeZScores(results)

	if results[2].ZScore != 0 || results[2].Rank != 0 {
		t.Fatalf("incomplete row must carry no z-score or rank, got z=%f rank=%d", results[2].ZScore, results[2].Rank)
	}
	// The excluded row must not shift the others: mean stays 180.
	if math.Abs(results[0].ZScore-1) > 1e-9 {
		t.Fatalf("statistics shifted by excluded row: z=%f", results[0].ZScore)
	}
}

func TestZeroDeviationYieldsZeroZScore(t *testing.T) {
	results := []domain.Result{
		resultRow("m1", domain.StreamMaths, mark(50), mark(50), mark(50)),
		resultRow("m2", domain.StreamMaths, mark(50), mark(50), mark(50)),
	}

	ComputeZScores(results)

	for _, r := range results {
		if r.ZScore != 0 {
			t.Fatalf("expected z=0 when deviation is zero, got %f", r.ZScore)
		}
	}
}

func TestTiedTotalsShareRank(t *testing.T) {
	results := []domain.Result{
		resultRow("m1", domain.StreamMaths, mark(80), mark(70), mark(60)), // 210
		resultRow("m2", domain.StreamMaths, mark(60), mark(70), mark(80)), // 210
		resultRow("m3", domain.StreamMaths, mark(50), mark(50), mark(50)), // 150
	}

	ComputeZScores(results)

	if results[0].Rank != 1 || results[1].Rank != 1 {
		t.Fatalf("expected shared rank 1, got %d/%d", results[0].Rank, results[1].Rank)
	}
	if results[2].Rank != 3 {
		t.Fatalf("expected next rank 3 after a tie, got %d", results[2].Rank)
	}
}
