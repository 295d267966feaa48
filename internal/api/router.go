package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/tracklens/internal/logging"
	"github.com/pysugar/tracklens/internal/team"
)

// Dependencies are the services the router serves.
type Dependencies struct {
	Tokens         TokenService
	Org            Organization
	Roster         *team.Roster
	MetricsHandler http.Handler
	AdminPassword  string
}

// NewRouter builds the HTTP routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(OptionalAdminAuth(deps.AdminPassword))
		r.Get("/version", VersionHandler())

		r.Get("/team", TeamHandler(deps.Roster))
		r.Get("/team/lookup", TeamLookupHandler(deps.Roster))

		r.Route("/hubstaff", func(r chi.Router) {
			r.Get("/token", TokenStatusHandler(deps.Tokens))
			r.Post("/token/refresh", TokenRefreshHandler(deps.Tokens))
			r.Get("/members", MembersHandler(deps.Org))
			r.Get("/projects", ProjectsHandler(deps.Org))
			r.Get("/activities", ActivitiesHandler(deps.Org, deps.Roster))
		})

		r.Get("/reports/attendance", AttendanceHandler(deps.Org))
		r.Post("/reports/project-effort", ProjectEffortHandler(deps.Org))
	})
	return r
}
