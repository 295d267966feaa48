// Package report aggregates enriched daily activities into per-user and per-project views.
package report

import (
	"math"
	"sort"

	"github.com/pysugar/tracklens/internal/hubstaff"
)

// WeightedActivity is the time-weighted mean activity percentage over records with
// non-zero activity, rounded to the nearest integer. Zero-activity records (idle or
// meeting time) are left out of the denominator; 0 when nothing qualifies.
func WeightedActivity(records []hubstaff.DailyActivity) int {
	var weighted, seconds int64
	for _, r := range records {
		if r.ActivityPercentage <= 0 {
			continue
		}
		weighted += int64(r.ActivityPercentage) * r.TimeWorked
		seconds += r.TimeWorked
	}
	if seconds == 0 {
		return 0
	}
	return int(math.Round(float64(weighted) / float64(seconds)))
}

// TotalTimeWorked sums tracked seconds across all records, idle ones included.
func TotalTimeWorked(records []hubstaff.DailyActivity) int64 {
	var total int64
	for _, r := range records {
		total += r.TimeWorked
	}
	return total
}

// UserSummary is one user's attendance and activity over a period.
type UserSummary struct {
	UserID           int64    `json:"userId"`
	UserName         string   `json:"userName"`
	Team             string   `json:"team,omitempty"`
	TotalTimeWorked  int64    `json:"totalTimeWorked"`
	WeightedActivity int      `json:"weightedActivity"`
	DaysWorked       int      `json:"daysWorked"`
	Projects         []string `json:"projects"`
}

// SummarizeByUser groups records per user, sorted by user name then id.
func SummarizeByUser(records []hubstaff.DailyActivity) []UserSummary {
	grouped := make(map[int64][]hubstaff.DailyActivity)
	var order []int64
	for _, r := range records {
		if _, ok := grouped[r.UserID]; !ok {
			order = append(order, r.UserID)
		}
		grouped[r.UserID] = append(grouped[r.UserID], r)
	}

	summaries := make([]UserSummary, 0, len(order))
	for _, id := range order {
		recs := grouped[id]
		days := make(map[string]bool)
		projects := make(map[string]bool)
		s := UserSummary{UserID: id, UserName: recs[0].UserName}
		for _, r := range recs {
			if s.Team == "" {
				s.Team = r.Team
			}
			if r.TimeWorked > 0 {
				days[r.Date] = true
			}
			if r.ProjectName != "" {
				projects[r.ProjectName] = true
			}
		}
		s.TotalTimeWorked = TotalTimeWorked(recs)
		s.WeightedActivity = WeightedActivity(recs)
		s.DaysWorked = len(days)
		s.Projects = sortedKeys(projects)
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].UserName != summaries[j].UserName {
			return summaries[i].UserName < summaries[j].UserName
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	return summaries
}

// ProjectEffortRow compares tracked hours on a project with its estimate.
type ProjectEffortRow struct {
	ProjectName      string  `json:"projectName"`
	ActualHours      float64 `json:"actualHours"`
	EstimatedHours   float64 `json:"estimatedHours"`
	DeviationHours   float64 `json:"deviationHours"`
	DeviationPercent float64 `json:"deviationPercent"`
	WeightedActivity int     `json:"weightedActivity"`
}

// ProjectEffort computes actual vs estimated hours per project name.
// Projects with an estimate but no tracked time are included with zero actual hours.
// DeviationPercent is (actual-estimated)/estimated*100, or 0 without an estimate.
func ProjectEffort(records []hubstaff.DailyActivity, estimates map[string]float64) []ProjectEffortRow {
	grouped := make(map[string][]hubstaff.DailyActivity)
	for _, r := range records {
		if r.ProjectName == "" {
			continue
		}
		grouped[r.ProjectName] = append(grouped[r.ProjectName], r)
	}
	for name := range estimates {
		if _, ok := grouped[name]; !ok {
			grouped[name] = nil
		}
	}

	rows := make([]ProjectEffortRow, 0, len(grouped))
	for name, recs := range grouped {
		actual := round2(float64(TotalTimeWorked(recs)) / 3600)
		estimated := estimates[name]
		row := ProjectEffortRow{
			ProjectName:      name,
			ActualHours:      actual,
			EstimatedHours:   estimated,
			DeviationHours:   round2(actual - estimated),
			WeightedActivity: WeightedActivity(recs),
		}
		if estimated > 0 {
			row.DeviationPercent = round2((actual - estimated) / estimated * 100)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProjectName < rows[j].ProjectName })
	return rows
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
