package hubstaff

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DailyActivities fetches per-user, per-day activity between start and end (inclusive,
// YYYY-MM-DD), optionally restricted to userIDs, and resolves member, project and team names.
// Provider order is preserved. Any page failure fails the whole call.
func (s *Service) DailyActivities(ctx context.Context, start, end string, userIDs []int64) ([]DailyActivity, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	members, err := s.memberSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projectSnapshot(ctx, false)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"date[start]": {start},
		"date[stop]":  {end},
		"page_limit":  {strconv.Itoa(PageLimit)},
	}
	if len(userIDs) > 0 {
		ids := make([]string, len(userIDs))
		for i, id := range userIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		query.Set("user_ids", strings.Join(ids, ","))
	}

	var raw []rawDailyActivity
	err = s.client.fetchAllPages(ctx, s.orgURL("activities/daily"), query, func(p page) error {
		items, err := decodeField[rawDailyActivity](p, "daily_activities")
		if err != nil {
			return err
		}
		raw = append(raw, items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch daily activities: %w", err)
	}

	records := make([]DailyActivity, 0, len(raw))
	for _, a := range raw {
		rec := DailyActivity{
			ID:                 a.ID,
			UserID:             a.UserID,
			UserName:           members.nameOf(a.UserID),
			Date:               a.Date,
			TimeWorked:         a.Tracked,
			ActiveSeconds:      a.Overall,
			ActivityPercentage: ActivityPercentage(a.Overall, a.Tracked),
		}
		if a.ProjectID != nil {
			id := *a.ProjectID
			rec.ProjectID = &id
			rec.ProjectName = UnknownProject
			if name, ok := projects.names[id]; ok {
				rec.ProjectName = name
			}
		}
		if label, ok := s.roster.DepartmentLabel(rec.UserName); ok {
			rec.Team = label
		}
		records = append(records, rec)
	}
	return records, nil
}

// ActivityPercentage is round(overall/tracked*100) clamped to 0..100, or 0 when nothing was tracked.
func ActivityPercentage(overall, tracked int64) int {
	if tracked <= 0 || overall <= 0 {
		return 0
	}
	pct := int(math.Round(float64(overall) / float64(tracked) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

func validateRange(start, end string) error {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start %q is not YYYY-MM-DD", ErrInvalidRange, start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end %q is not YYYY-MM-DD", ErrInvalidRange, end)
	}
	if s.After(e) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	return nil
}
