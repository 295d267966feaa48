package hubstaff

// User is an entry of the members endpoint's included users.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type membership struct {
	UserID           int64  `json:"user_id"`
	Name             string `json:"name"`
	UserName         string `json:"user_name"`
	MembershipStatus string `json:"membership_status"`
	MembershipRole   string `json:"membership_role"`
}

// Member is an organization member resolved against its full user record.
type Member struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status"`
}

// Project is a remote Hubstaff project, active or archived.
type Project struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type rawDailyActivity struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	UserID    int64  `json:"user_id"`
	ProjectID *int64 `json:"project_id"`
	Tracked   int64  `json:"tracked"`
	Overall   int64  `json:"overall"`
}

// DailyActivity is one user's tracked time for one day and project, with names resolved.
type DailyActivity struct {
	ID                 int64  `json:"id"`
	UserID             int64  `json:"userId"`
	UserName           string `json:"userName"`
	Date               string `json:"date"`
	TimeWorked         int64  `json:"timeWorked"`
	ActiveSeconds      int64  `json:"activeSeconds"`
	ActivityPercentage int    `json:"activityPercentage"`
	ProjectID          *int64 `json:"projectId,omitempty"`
	ProjectName        string `json:"projectName,omitempty"`
	Team               string `json:"team,omitempty"`
}

const (
	UnknownUser    = "Unknown User"
	UnknownProject = "Unknown Project"
)
