package validation

import (
	"fmt"
	"math"
)

// QualityGrade classifies a delta-E magnitude into one of five ordered
// grades, from excellent (tightest color match) to out_of_range.
type QualityGrade string

const (
	GradeExcellent  QualityGrade = "excellent"
	GradeGood       QualityGrade = "good"
	GradeAcceptable QualityGrade = "acceptable"
	GradeDefective  QualityGrade = "defective"
	GradeOutOfRange QualityGrade = "out_of_range"
)

// Severity returns the grade's rank, 0 for excellent up to 4 for
// out_of_range. Unknown grades rank worst.
func (g QualityGrade) Severity() int {
	switch g {
	case GradeExcellent:
		return 0
	case GradeGood:
		return 1
	case GradeAcceptable:
		return 2
	case GradeDefective:
		return 3
	default:
		return 4
	}
}

// GradeThresholds defines the ascending delta-E boundaries between grades.
// Each boundary is an inclusive upper bound for the stricter grade.
type GradeThresholds struct {
	Excellent  float64
	Good       float64
	Acceptable float64
	Defective  float64
}

// DefaultGradeThresholds returns the standard grade boundaries.
func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{
		Excellent:  1.0,
		Good:       2.0,
		Acceptable: 3.0,
		Defective:  5.0,
	}
}

// Validate checks that the boundaries are strictly ascending.
func (t GradeThresholds) Validate() error {
	if !(t.Excellent < t.Good && t.Good < t.Acceptable && t.Acceptable < t.Defective) {
		return fmt.Errorf("grade thresholds must be strictly ascending: %+v", t)
	}
	return nil
}

// Grader maps delta-E values to quality grades. It is stateless and safe
// for concurrent use.
type Grader struct {
	thresholds GradeThresholds
}

// NewGrader creates a grader with the default thresholds.
func NewGrader() *Grader {
	return &Grader{thresholds: DefaultGradeThresholds()}
}

// NewGraderWithThresholds creates a grader with custom thresholds.
func NewGraderWithThresholds(thresholds GradeThresholds) *Grader {
	return &Grader{thresholds: thresholds}
}

// Thresholds returns the grader's configured boundaries.
func (g *Grader) Thresholds() GradeThresholds {
	return g.thresholds
}

// Grade classifies a delta-E value. The classification uses the absolute
// value, so the function is total over all reals; boundary values belong to
// the stricter grade.
func (g *Grader) Grade(de float64) QualityGrade {
	abs := math.Abs(de)
	switch {
	case abs <= g.thresholds.Excellent:
		return GradeExcellent
	case abs <= g.thresholds.Good:
		return GradeGood
	case abs <= g.thresholds.Acceptable:
		return GradeAcceptable
	case abs <= g.thresholds.Defective:
		return GradeDefective
	default:
		return GradeOutOfRange
	}
}

// IsAlertable reports whether a grade should drive a warning notification.
// The alert cooldown is enforced by the notifier, not here.
func (g *Grader) IsAlertable(grade QualityGrade) bool {
	return grade == GradeDefective || grade == GradeOutOfRange
}

// StatusMessage returns the operator-facing status line for a delta-E value.
func (g *Grader) StatusMessage(de float64) string {
	switch g.Grade(de) {
	case GradeExcellent:
		return fmt.Sprintf("Status: Excellent Quality (DE <= %.1f)", g.thresholds.Excellent)
	case GradeGood:
		return fmt.Sprintf("Status: Good Quality (DE <= %.1f)", g.thresholds.Good)
	case GradeAcceptable:
		return fmt.Sprintf("Status: Acceptable (DE <= %.1f)", g.thresholds.Acceptable)
	case GradeDefective:
		return fmt.Sprintf("Status: Defective - Quality Check Required (DE=%.1f)", de)
	default:
		return fmt.Sprintf("Status: Out of Range - Immediate Check Required (DE=%.1f)", de)
	}
}

// DisplayColor returns the dashboard color associated with a grade.
func DisplayColor(grade QualityGrade) string {
	switch grade {
	case GradeExcellent:
		return "#00C800"
	case GradeGood:
		return "#96FF96"
	case GradeAcceptable:
		return "#FFFF00"
	case GradeDefective:
		return "#FF0000"
	default:
		return "#800080"
	}
}
