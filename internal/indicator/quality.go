package indicator

import (
	"fmt"
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

// Issue kinds reported by ValidateSeries. The first three make a series
// unusable; the rest are warnings the caller may log and proceed past.
const (
	IssueEmptySeries        = "empty_series"
	IssueNonMonotonic       = "non_monotonic_timestamp"
	IssueDuplicateTimestamp = "duplicate_timestamp"
	IssueNonPositivePrice   = "non_positive_price"
	IssueInvertedRange      = "inverted_range"
	IssueTimeGap            = "time_gap"
)

type Issue struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type QualityReport struct {
	TotalBars int     `json:"total_bars"`
	Issues    []Issue `json:"issues,omitempty"`
}

// Fatal returns the issues that make the series unusable for a run.
func (r QualityReport) Fatal() []Issue {
	var fatal []Issue
	for _, issue := range r.Issues {
		switch issue.Kind {
		case IssueEmptySeries, IssueNonMonotonic, IssueDuplicateTimestamp:
			fatal = append(fatal, issue)
		}
	}
	return fatal
}

// ValidateSeries inspects a candle series for ordering problems, impossible
// prices and timestamp gaps. expectedStep is the nominal bar duration; pass
// zero to skip gap detection.
func ValidateSeries(candles []dto.Candle, expectedStep time.Duration) QualityReport {
	report := QualityReport{TotalBars: len(candles)}
	if len(candles) == 0 {
		report.Issues = append(report.Issues, Issue{
			Index:   -1,
			Kind:    IssueEmptySeries,
			Message: "series contains no candles",
		})
		return report
	}

	for i, c := range candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueNonPositivePrice,
				Message: fmt.Sprintf("non-positive price at %s", c.Timestamp.Format(time.RFC3339)),
			})
		}
		if c.High < c.Low {
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueInvertedRange,
				Message: fmt.Sprintf("high %.8f below low %.8f", c.High, c.Low),
			})
		}

		if i == 0 {
			continue
		}
		prev := candles[i-1]
		switch {
		case c.Timestamp.Equal(prev.Timestamp):
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueDuplicateTimestamp,
				Message: fmt.Sprintf("duplicate timestamp %s", c.Timestamp.Format(time.RFC3339)),
			})
		case c.Timestamp.Before(prev.Timestamp):
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueNonMonotonic,
				Message: fmt.Sprintf("timestamp %s precedes %s", c.Timestamp.Format(time.RFC3339), prev.Timestamp.Format(time.RFC3339)),
			})
		case expectedStep > 0 && c.Timestamp.Sub(prev.Timestamp) > expectedStep:
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueTimeGap,
				Message: fmt.Sprintf("gap of %s before %s", c.Timestamp.Sub(prev.Timestamp), c.Timestamp.Format(time.RFC3339)),
			})
		}
	}

	return report
}
