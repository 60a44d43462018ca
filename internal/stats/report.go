package stats

import (
	"context"

	"github.com/yetype/yetype/internal/model"
)

// Lister pages through stored tests.
type Lister interface {
	ListTests(ctx context.Context, q model.PastTestsQuery) (model.PastTestsPage, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Tests   []model.Result // oldest first
	Skipped int
}

// BuildReport loads up to last tests matching filters, following cursors
// across pages. A last of 0 loads everything.
func BuildReport(ctx context.Context, st Lister, filters []model.PastTestFilter, last int) (Report, error) {
	var report Report
	q := model.PastTestsQuery{Filters: filters}
	for {
		page, err := st.ListTests(ctx, q)
		if err != nil {
			return Report{}, err
		}
		report.Tests = append(report.Tests, page.Tests...)
		report.Skipped += page.Skipped
		if last > 0 && len(report.Tests) >= last {
			report.Tests = report.Tests[:last]
			break
		}
		if !page.HasMore || len(page.Tests) == 0 {
			break
		}
		q.Cursor = &model.Cursor{
			Direction: model.CursorBefore,
			Time:      page.Tests[len(page.Tests)-1].CreatedAt,
		}
	}
	reverse(report.Tests)
	return report, nil
}

func reverse(tests []model.Result) {
	for i, j := 0, len(tests)-1; i < j; i, j = i+1, j-1 {
		tests[i], tests[j] = tests[j], tests[i]
	}
}
