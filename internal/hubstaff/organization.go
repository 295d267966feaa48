package hubstaff

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/tracklens/internal/cache"
	"github.com/pysugar/tracklens/internal/clock"
	"github.com/pysugar/tracklens/internal/metrics"
	"github.com/pysugar/tracklens/internal/team"
)

// DefaultCacheTTL is how long organization members and projects are reused.
const DefaultCacheTTL = time.Hour

type memberSnapshot struct {
	members []Member
	users   map[int64]User
	byID    map[int64]Member
}

type projectSnapshot struct {
	projects []Project
	names    map[int64]string
}

// Service exposes organization lookups and daily activities for one organization.
type Service struct {
	client  *Client
	apiBase string
	orgID   string
	roster  *team.Roster
	metrics *metrics.Metrics

	members  *cache.TTL[string, memberSnapshot]
	projects *cache.TTL[string, projectSnapshot]
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	APIBase  string
	OrgID    string
	Roster   *team.Roster
	CacheTTL time.Duration
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

// NewService creates a Service over client.
func NewService(client *Client, opts ServiceOptions) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		client:   client,
		apiBase:  strings.TrimRight(opts.APIBase, "/"),
		orgID:    strings.TrimSpace(opts.OrgID),
		roster:   opts.Roster,
		metrics:  opts.Metrics,
		members:  cache.NewTTL[string, memberSnapshot](ttl, opts.Clock),
		projects: cache.NewTTL[string, projectSnapshot](ttl, opts.Clock),
	}
}

// OrganizationMembers returns all organization members, cached per organization.
func (s *Service) OrganizationMembers(ctx context.Context) ([]Member, error) {
	snap, err := s.memberSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Member(nil), snap.members...), nil
}

// OrganizationProjects returns all projects including archived ones.
// forceRefresh bypasses the cache.
func (s *Service) OrganizationProjects(ctx context.Context, forceRefresh bool) ([]Project, error) {
	snap, err := s.projectSnapshot(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return append([]Project(nil), snap.projects...), nil
}

// InvalidateCaches drops cached members and projects for the organization.
func (s *Service) InvalidateCaches() {
	s.members.Delete(s.orgID)
	s.projects.Delete(s.orgID)
}

func (s *Service) memberSnapshot(ctx context.Context) (memberSnapshot, error) {
	if err := s.checkConfigured(); err != nil {
		return memberSnapshot{}, err
	}
	if snap, ok := s.members.Get(s.orgID); ok {
		s.metrics.ObserveCache("members", true)
		return snap, nil
	}
	s.metrics.ObserveCache("members", false)

	var memberships []membership
	users := make(map[int64]User)
	query := url.Values{"include": {"users"}}
	err := s.client.fetchAllPages(ctx, s.orgURL("members"), query, func(p page) error {
		items, err := decodeField[membership](p, "members")
		if err != nil {
			return err
		}
		included, err := decodeOptionalField[User](p, "users")
		if err != nil {
			return err
		}
		memberships = append(memberships, items...)
		for _, u := range included {
			users[u.ID] = u
		}
		return nil
	})
	if err != nil {
		return memberSnapshot{}, fmt.Errorf("fetch organization members: %w", err)
	}

	snap := memberSnapshot{
		members: make([]Member, 0, len(memberships)),
		users:   users,
		byID:    make(map[int64]Member, len(memberships)),
	}
	for _, ms := range memberships {
		m := Member{ID: ms.UserID, Name: ms.Name, Status: ms.MembershipStatus}
		if m.Name == "" {
			m.Name = ms.UserName
		}
		if u, ok := users[ms.UserID]; ok {
			if u.Name != "" {
				m.Name = u.Name
			}
			m.Email = u.Email
			if u.Status != "" {
				m.Status = u.Status
			}
		}
		snap.members = append(snap.members, m)
		snap.byID[m.ID] = m
	}

	s.members.Set(s.orgID, snap)
	log.Printf("📦 Cached %d Hubstaff members for organization %s", len(snap.members), s.orgID)
	return snap, nil
}

func (s *Service) projectSnapshot(ctx context.Context, forceRefresh bool) (projectSnapshot, error) {
	if err := s.checkConfigured(); err != nil {
		return projectSnapshot{}, err
	}
	if !forceRefresh {
		if snap, ok := s.projects.Get(s.orgID); ok {
			s.metrics.ObserveCache("projects", true)
			return snap, nil
		}
	}
	s.metrics.ObserveCache("projects", false)

	var projects []Project
	query := url.Values{
		"status":     {"all"},
		"page_limit": {strconv.Itoa(PageLimit)},
	}
	err := s.client.fetchAllPages(ctx, s.orgURL("projects"), query, func(p page) error {
		items, err := decodeField[Project](p, "projects")
		if err != nil {
			return err
		}
		projects = append(projects, items...)
		return nil
	})
	if err != nil {
		return projectSnapshot{}, fmt.Errorf("fetch organization projects: %w", err)
	}

	snap := projectSnapshot{
		projects: projects,
		names:    make(map[int64]string, len(projects)),
	}
	for _, p := range projects {
		snap.names[p.ID] = p.Name
	}

	s.projects.Set(s.orgID, snap)
	log.Printf("📦 Cached %d Hubstaff projects for organization %s", len(projects), s.orgID)
	return snap, nil
}

func (s *Service) orgURL(resource string) string {
	return fmt.Sprintf("%s/organizations/%s/%s", s.apiBase, url.PathEscape(s.orgID), resource)
}

func (s *Service) checkConfigured() error {
	if s.orgID == "" {
		return ErrNotConfigured
	}
	return nil
}

func (snap memberSnapshot) nameOf(userID int64) string {
	if u, ok := snap.users[userID]; ok && u.Name != "" {
		return u.Name
	}
	if m, ok := snap.byID[userID]; ok && m.Name != "" {
		return m.Name
	}
	return UnknownUser
}
