// Package api exposes the Hubstaff integration over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pysugar/tracklens/internal/auth/token"
	"github.com/pysugar/tracklens/internal/hubstaff"
	"github.com/pysugar/tracklens/internal/report"
	"github.com/pysugar/tracklens/internal/team"
	"github.com/pysugar/tracklens/internal/version"
)

// TokenService is the token manager surface the handlers need.
type TokenService interface {
	Status(ctx context.Context) token.Status
	Refresh(ctx context.Context) error
}

// Organization is the Hubstaff data surface the handlers need.
type Organization interface {
	OrganizationMembers(ctx context.Context) ([]hubstaff.Member, error)
	OrganizationProjects(ctx context.Context, forceRefresh bool) ([]hubstaff.Project, error)
	DailyActivities(ctx context.Context, start, end string, userIDs []int64) ([]hubstaff.DailyActivity, error)
}

// VersionHandler returns build metadata.
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.Current())
	}
}

// TeamHandler lists the reconciliation roster.
func TeamHandler(roster *team.Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members := roster.Members()
		if members == nil {
			members = []team.Member{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

// TeamLookupHandler resolves a Hubstaff display name or internal short name to a roster entry.
func TeamLookupHandler(roster *team.Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		member, ok := roster.LookupByProviderName(name)
		if !ok {
			member, ok = roster.LookupByName(name)
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no roster entry for "+name)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"member":     member,
			"department": member.Department.Label(),
		})
	}
}

// TokenStatusHandler reports whether a usable token is held.
func TokenStatusHandler(tokens TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tokens.Status(r.Context()))
	}
}

// TokenRefreshHandler forces a token refresh.
func TokenRefreshHandler(tokens TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tokens.Refresh(r.Context()); err != nil {
			writeUpstreamError(w, r, fmt.Errorf("%w: %w", hubstaff.ErrAuthUnavailable, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"token":  tokens.Status(r.Context()),
		})
	}
}

// MembersHandler lists organization members.
func MembersHandler(org Organization) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := org.OrganizationMembers(r.Context())
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

// ProjectsHandler lists organization projects; ?refresh=true bypasses the cache.
func ProjectsHandler(org Organization) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
		projects, err := org.OrganizationProjects(r.Context(), force)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	}
}

// ActivitiesHandler returns enriched daily activities.
// ?assignee= narrows the result to the Hubstaff user an internal name resolves to.
func ActivitiesHandler(org Organization, roster *team.Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		userIDs, err := parseUserIDs(q.Get("user_ids"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		records, err := org.DailyActivities(r.Context(), q.Get("start"), q.Get("end"), userIDs)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}

		resp := map[string]any{}
		if assignee := strings.TrimSpace(q.Get("assignee")); assignee != "" {
			match, ok := team.MatchAssignee(assignee, roster, displayNames(records))
			if !ok {
				records = nil
			} else {
				records = filterByUser(records, match.DisplayName)
				resp["match"] = match
			}
		}
		if records == nil {
			records = []hubstaff.DailyActivity{}
		}
		resp["activities"] = records
		resp["totalTimeWorked"] = report.TotalTimeWorked(records)
		resp["weightedActivity"] = report.WeightedActivity(records)
		writeJSON(w, http.StatusOK, resp)
	}
}

// AttendanceHandler summarizes activities per user.
func AttendanceHandler(org Organization) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		userIDs, err := parseUserIDs(q.Get("user_ids"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		records, err := org.DailyActivities(r.Context(), q.Get("start"), q.Get("end"), userIDs)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"start": q.Get("start"),
			"end":   q.Get("end"),
			"users": report.SummarizeByUser(records),
		})
	}
}

type projectEffortRequest struct {
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Estimates map[string]float64 `json:"estimates"`
}

// ProjectEffortHandler compares tracked hours with the posted per-project estimates.
func ProjectEffortHandler(org Organization) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectEffortRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		records, err := org.DailyActivities(r.Context(), req.Start, req.End, nil)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"start":    req.Start,
			"end":      req.End,
			"projects": report.ProjectEffort(records, req.Estimates),
		})
	}
}

func parseUserIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func displayNames(records []hubstaff.DailyActivity) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if r.UserName == "" || r.UserName == hubstaff.UnknownUser || seen[r.UserName] {
			continue
		}
		seen[r.UserName] = true
		names = append(names, r.UserName)
	}
	return names
}

func filterByUser(records []hubstaff.DailyActivity, name string) []hubstaff.DailyActivity {
	var out []hubstaff.DailyActivity
	for _, r := range records {
		if r.UserName == name {
			out = append(out, r)
		}
	}
	return out
}
