package team

import "testing"

func TestMatchAssignee(t *testing.T) {
	roster := DefaultRoster()
	displayNames := []string{"Justin Jose", "Rahul Krishnan", "Arjun Menon", "Al Smith"}

	tests := []struct {
		name     string
		assignee string
		want     Match
		found    bool
	}{
		{name: "exact ignores case", assignee: "rahul krishnan", want: Match{DisplayName: "Rahul Krishnan", Kind: MatchExact}, found: true},
		{name: "roster short name", assignee: "Justin", want: Match{DisplayName: "Justin Jose", Kind: MatchRoster}, found: true},
		{name: "substring fallback", assignee: "Menon", want: Match{DisplayName: "Arjun Menon", Kind: MatchSubstring}, found: true},
		{name: "longer assignee contains display name", assignee: "Al Smith (contractor)", want: Match{DisplayName: "Al Smith", Kind: MatchSubstring}, found: true},
		{name: "too short for substring", assignee: "Al", found: false},
		{name: "skipped roster entry", assignee: "Priya", found: false},
		{name: "empty", assignee: "  ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchAssignee(tt.assignee, roster, displayNames)
			if ok != tt.found {
				t.Fatalf("MatchAssignee(%q) found=%v, want %v (got %+v)", tt.assignee, ok, tt.found, got)
			}
			if ok && got != tt.want {
				t.Fatalf("MatchAssignee(%q) = %+v, want %+v", tt.assignee, got, tt.want)
			}
		})
	}
}

func TestMatchAssignee_ExactBeatsRoster(t *testing.T) {
	roster, err := NewRoster([]Member{{Name: "Jo", HubstaffName: "Joanna Park", Department: QA}})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	got, ok := MatchAssignee("jo", roster, []string{"Joanna Park", "Jo"})
	if !ok || got.Kind != MatchExact || got.DisplayName != "Jo" {
		t.Fatalf("expected exact match on Jo, got %+v ok=%v", got, ok)
	}
}

func TestMatchAssignee_NilRoster(t *testing.T) {
	got, ok := MatchAssignee("Justin", nil, []string{"Justin Jose"})
	if !ok || got.Kind != MatchSubstring {
		t.Fatalf("expected substring match without roster, got %+v ok=%v", got, ok)
	}
}
