// Package team maps Hubstaff display names onto the internal team roster and departments.
package team

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkipName marks a roster entry whose person has no Hubstaff account.
const SkipName = "SKIP"

// Department is a fixed department code.
type Department string

const (
	Designers       Department = "DESIGNERS"
	Developers      Department = "DEVELOPERS"
	QA              Department = "QA"
	ProjectManagers Department = "PROJECT_MANAGERS"
	Marketing       Department = "MARKETING"
	Management      Department = "MANAGEMENT"
)

var departmentLabels = map[Department]string{
	Designers:       "Design",
	Developers:      "Development",
	QA:              "Quality Assurance",
	ProjectManagers: "Project Management",
	Marketing:       "Marketing",
	Management:      "Management",
}

// Label returns the human-readable department name.
func (d Department) Label() string {
	if label, ok := departmentLabels[d]; ok {
		return label
	}
	return string(d)
}

// Valid reports whether d is a known department code.
func (d Department) Valid() bool {
	_, ok := departmentLabels[d]
	return ok
}

// Member is one roster entry.
type Member struct {
	Name         string     `yaml:"name" json:"name"`
	HubstaffName string     `yaml:"hubstaff_name" json:"hubstaffName"`
	Department   Department `yaml:"department" json:"department"`
}

// Skipped reports whether the entry never reconciles against Hubstaff.
func (m Member) Skipped() bool {
	return strings.EqualFold(strings.TrimSpace(m.HubstaffName), SkipName) || strings.TrimSpace(m.HubstaffName) == ""
}

type fileConfig struct {
	Members []Member `yaml:"members"`
}

//go:embed default_roster.yaml
var defaultRosterYAML []byte

// Roster is the read-only reconciliation table.
type Roster struct {
	members    []Member
	byProvider map[string]int
	byName     map[string]int
}

// NewRoster indexes members. Unknown department codes are rejected.
func NewRoster(members []Member) (*Roster, error) {
	r := &Roster{
		members:    make([]Member, 0, len(members)),
		byProvider: make(map[string]int, len(members)),
		byName:     make(map[string]int, len(members)),
	}
	for _, m := range members {
		m.Name = strings.TrimSpace(m.Name)
		m.HubstaffName = strings.TrimSpace(m.HubstaffName)
		m.Department = Department(strings.ToUpper(strings.TrimSpace(string(m.Department))))
		if m.Name == "" {
			return nil, fmt.Errorf("roster entry with hubstaff name %q has no name", m.HubstaffName)
		}
		if !m.Department.Valid() {
			return nil, fmt.Errorf("roster entry %q has unknown department %q", m.Name, m.Department)
		}

		idx := len(r.members)
		r.members = append(r.members, m)
		if _, dup := r.byName[normalize(m.Name)]; !dup {
			r.byName[normalize(m.Name)] = idx
		}
		if m.Skipped() {
			continue
		}
		if _, dup := r.byProvider[normalize(m.HubstaffName)]; dup {
			return nil, fmt.Errorf("duplicate hubstaff name %q in roster", m.HubstaffName)
		}
		r.byProvider[normalize(m.HubstaffName)] = idx
	}
	return r, nil
}

// ParseRoster builds a roster from YAML.
func ParseRoster(data []byte) (*Roster, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return NewRoster(cfg.Members)
}

// DefaultRoster returns the embedded roster.
func DefaultRoster() *Roster {
	r, err := ParseRoster(defaultRosterYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded roster is invalid: %v", err))
	}
	return r
}

// Load reads the roster from path, or returns the embedded default when path is empty.
func Load(path string) (*Roster, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		r := DefaultRoster()
		log.Printf("👥 Using embedded team roster (%d members)", len(r.members))
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %q: %w", path, err)
	}
	r, err := ParseRoster(data)
	if err != nil {
		return nil, fmt.Errorf("roster file %q: %w", path, err)
	}
	log.Printf("👥 Loaded team roster from %s (%d members)", path, len(r.members))
	return r, nil
}

// LookupByProviderName finds the entry whose hubstaff name equals name, ignoring case.
func (r *Roster) LookupByProviderName(name string) (Member, bool) {
	if r == nil {
		return Member{}, false
	}
	idx, ok := r.byProvider[normalize(name)]
	if !ok {
		return Member{}, false
	}
	return r.members[idx], true
}

// LookupByName finds the entry with the given internal short name, ignoring case.
func (r *Roster) LookupByName(name string) (Member, bool) {
	if r == nil {
		return Member{}, false
	}
	idx, ok := r.byName[normalize(name)]
	if !ok {
		return Member{}, false
	}
	return r.members[idx], true
}

// DepartmentLabel resolves a Hubstaff display name to its department label.
func (r *Roster) DepartmentLabel(providerName string) (string, bool) {
	m, ok := r.LookupByProviderName(providerName)
	if !ok {
		return "", false
	}
	return m.Department.Label(), true
}

// Members returns a copy of all entries in file order.
func (r *Roster) Members() []Member {
	if r == nil {
		return nil
	}
	return append([]Member(nil), r.members...)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
