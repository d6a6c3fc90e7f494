package grading

import (
	"math"
	"sort"

	"school-quiz-service/internal/domain"
)

// streamTotal sums the three required marks for a result: the stream's own
// third subject plus physics and chemistry. ok is false when any of the
// three is absent; such applicants are excluded from the stream's
// statistics entirely, never treated as zero.
func streamTotal(result domain.Result) (total float64, ok bool) {
	subjects := []domain.Subject{
		domain.StreamSubject(result.Stream),
		domain.SubjectPhysics,
		domain.SubjectChemistry,
	}
	for _, s := range subjects {
		mark := result.Mark(s)
		if mark == nil {
			return 0, false
		}
		total += *mark
	}
	return total, true
}

// ComputeZScores standardizes totals within each stream and assigns
// stream-scoped ranks by total descending (ties share a position). Rows
// from other streams are never part of a stream's mean or deviation, so
// changing one maths-stream mark cannot move a biology-stream z-score.
// The input slice is mutated in place and also returned.
func ComputeZScores(results []domain.Result) []domain.Result {
	byStream := make(map[domain.Stream][]int)
	totals := make(map[int]float64)
	for i := range results {
		total, ok := streamTotal(results[i])
		if !ok {
			results[i].ZScore = 0
			results[i].Rank = 0
			continue
		}
		totals[i] = total
		byStream[results[i].Stream] = append(byStream[results[i].Stream], i)
	}

	for _, indexes := range byStream {
		mean, std := meanStd(indexes, totals)
		for _, i := range indexes {
			if std == 0 {
				results[i].ZScore = 0
			} else {
				results[i].ZScore = (totals[i] - mean) / std
			}
		}
		rank(indexes, totals, results)
	}
	return results
}

func meanStd(indexes []int, totals map[int]float64) (mean, std float64) {
	n := float64(len(indexes))
	if n == 0 {
		return 0, 0
	}
	for _, i := range indexes {
		mean += totals[i]
	}
	mean /= n

	var variance float64
	for _, i := range indexes {
		d := totals[i] - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

// rank orders one stream's rows by total descending; equal totals share
// the same rank and the next distinct total resumes at its position.
func rank(indexes []int, totals map[int]float64, results []domain.Result) {
	ordered := make([]int, len(indexes))
	copy(ordered, indexes)
	sort.SliceStable(ordered, func(a, b int) bool {
		return totals[ordered[a]] > totals[ordered[b]]
	})

	current := 0
	var prev float64
	for pos, i := range ordered {
		if pos == 0 || totals[i] != prev {
			current = pos + 1
		}
		results[i].Rank = current
		prev = totals[i]
	}
}
