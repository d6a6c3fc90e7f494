package grading

import (
	"fmt"

	"school-quiz-service/internal/domain"
)

// ValidateRanges rejects malformed grade boundaries before anything is
// persisted or regraded. A malformed range would make the threshold
// comparisons assign a wrong grade silently, so this runs first, always.
func ValidateRanges(r domain.GradeRanges) error {
	for _, v := range []float64{r.S, r.C, r.B, r.A} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: threshold %.2f outside [0,100]", domain.ErrValidation, v)
		}
	}
	if !(r.S < r.C && r.C < r.B && r.B < r.A) {
		return fmt.Errorf("%w: thresholds must be strictly ascending (S < C < B < A), got S=%.2f C=%.2f B=%.2f A=%.2f",
			domain.ErrValidation, r.S, r.C, r.B, r.A)
	}
	return nil
}

// GradeFromMark maps a raw mark to a letter grade under the given
// boundaries. An absent mark yields GradeNone. Callers must validate the
// ranges first; see ValidateRanges.
func GradeFromMark(mark *float64, r domain.GradeRanges) domain.Grade {
	if mark == nil {
		return domain.GradeNone
	}
	switch m := *mark; {
	case m >= r.A:
		return domain.GradeA
	case m >= r.B:
		return domain.GradeB
	case m >= r.C:
		return domain.GradeC
	case m >= r.S:
		return domain.GradeS
	default:
		return domain.GradeF
	}
}

// Regrade applies boundaries to one result row for the selected subjects,
// denormalizing a copy of the boundaries in effect onto the row.
func Regrade(result *domain.Result, subject domain.Subject, r domain.GradeRanges) {
	if result.Grades == nil {
		result.Grades = make(map[domain.Subject]domain.Grade)
	}
	if result.Ranges == nil {
		result.Ranges = make(map[domain.Subject]domain.GradeRanges)
	}

	subjects := []domain.Subject{subject}
	if subject == domain.SubjectAll {
		subjects = domain.Subjects()
	}
	for _, s := range subjects {
		result.Grades[s] = GradeFromMark(result.Mark(s), r)
		result.Ranges[s] = r
	}
}
