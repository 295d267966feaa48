package report

import (
	"testing"

	"github.com/pysugar/tracklens/internal/hubstaff"
)

func activity(userID int64, name, date, project string, pct int, seconds int64) hubstaff.DailyActivity {
	return hubstaff.DailyActivity{
		UserID:             userID,
		UserName:           name,
		Date:               date,
		ProjectName:        project,
		ActivityPercentage: pct,
		TimeWorked:         seconds,
	}
}

func TestWeightedActivity_ExcludesIdleTime(t *testing.T) {
	records := []hubstaff.DailyActivity{
		activity(1, "Justin Jose", "2026-02-02", "Web", 80, 3600),
		activity(1, "Justin Jose", "2026-02-02", "Meetings", 0, 1800),
		activity(1, "Justin Jose", "2026-02-03", "Web", 60, 1800),
	}

	if got := WeightedActivity(records); got != 73 {
		t.Fatalf("WeightedActivity = %d, want 73", got)
	}
	if got := TotalTimeWorked(records); got != 7200 {
		t.Fatalf("TotalTimeWorked = %d, want 7200", got)
	}
}

func TestWeightedActivity_ZeroDenominator(t *testing.T) {
	if got := WeightedActivity(nil); got != 0 {
		t.Fatalf("expected 0 for no records, got %d", got)
	}
	idle := []hubstaff.DailyActivity{activity(1, "A", "2026-02-02", "P", 0, 3600)}
	if got := WeightedActivity(idle); got != 0 {
		t.Fatalf("expected 0 when all records are idle, got %d", got)
	}
}

func TestSummarizeByUser(t *testing.T) {
	records := []hubstaff.DailyActivity{
		activity(2, "Rahul Krishnan", "2026-02-02", "API", 50, 3600),
		activity(1, "Justin Jose", "2026-02-02", "Web", 80, 3600),
		activity(1, "Justin Jose", "2026-02-02", "Meetings", 0, 1800),
		activity(1, "Justin Jose", "2026-02-03", "Web", 60, 1800),
		activity(2, "Rahul Krishnan", "2026-02-04", "", 0, 0),
	}
	records[1].Team = "Design"

	summaries := SummarizeByUser(records)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	justin := summaries[0]
	if justin.UserName != "Justin Jose" || justin.Team != "Design" {
		t.Fatalf("expected Justin first with team, got %+v", justin)
	}
	if justin.TotalTimeWorked != 7200 || justin.WeightedActivity != 73 || justin.DaysWorked != 2 {
		t.Fatalf("unexpected totals for Justin: %+v", justin)
	}
	if len(justin.Projects) != 2 || justin.Projects[0] != "Meetings" || justin.Projects[1] != "Web" {
		t.Fatalf("unexpected projects for Justin: %v", justin.Projects)
	}

	rahul := summaries[1]
	if rahul.DaysWorked != 1 || rahul.WeightedActivity != 50 {
		t.Fatalf("expected zero-time day not counted as attended, got %+v", rahul)
	}
}

func TestProjectEffort(t *testing.T) {
	records := []hubstaff.DailyActivity{
		activity(1, "A", "2026-02-02", "Web", 80, 3600*6),
		activity(2, "B", "2026-02-02", "Web", 60, 3600*6),
		activity(1, "A", "2026-02-03", "API", 70, 5400),
		activity(1, "A", "2026-02-03", "", 70, 600),
	}
	rows := ProjectEffort(records, map[string]float64{"Web": 10, "Docs": 4})

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	byName := map[string]ProjectEffortRow{}
	for _, r := range rows {
		byName[r.ProjectName] = r
	}

	web := byName["Web"]
	if web.ActualHours != 12 || web.DeviationHours != 2 || web.DeviationPercent != 20 || web.WeightedActivity != 70 {
		t.Fatalf("unexpected Web row: %+v", web)
	}
	api := byName["API"]
	if api.ActualHours != 1.5 || api.EstimatedHours != 0 || api.DeviationPercent != 0 {
		t.Fatalf("unexpected API row: %+v", api)
	}
	docs := byName["Docs"]
	if docs.ActualHours != 0 || docs.DeviationHours != -4 || docs.DeviationPercent != -100 {
		t.Fatalf("unexpected Docs row: %+v", docs)
	}
	if rows[0].ProjectName != "API" || rows[2].ProjectName != "Web" {
		t.Fatalf("expected rows sorted by name, got %+v", rows)
	}
}
