// Package roster holds the fixed list of selectable teams.
//
// A Roster is immutable once built: names are de-duplicated and sorted for
// display. Aliases let callers map common spellings ("spurs", "man utd") to
// the canonical roster name.
package roster

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTeams is the league roster used when no roster is configured.
var DefaultTeams = []string{
	"Arsenal", "Aston Villa", "Bournemouth", "Brentford", "Brighton",
	"Burnley", "Chelsea", "Crystal Palace", "Everton", "Fulham",
	"Leeds", "Liverpool", "Man City", "Man United", "Newcastle",
	"Nott'm Forest", "Sunderland", "Tottenham", "West Ham", "Wolves",
}

// DefaultAliases maps lower-cased alternative spellings to roster names.
var DefaultAliases = map[string]string{
	"manchester city":          "Man City",
	"man city":                 "Man City",
	"manchester united":        "Man United",
	"man united":               "Man United",
	"utd":                      "Man United",
	"nottingham forest":        "Nott'm Forest",
	"nottm forest":             "Nott'm Forest",
	"wolverhampton":            "Wolves",
	"brighton and hove albion": "Brighton",
	"west ham united":          "West Ham",
	"tottenham hotspur":        "Tottenham",
	"spurs":                    "Tottenham",
}

// Roster is a sorted, duplicate-free team list.
type Roster struct {
	teams   []string
	index   map[string]string // lower-case name -> canonical name
	aliases map[string]string
}

// New builds a Roster from names and aliases. Blank names are skipped and
// duplicates (case-insensitive) keep their first spelling. Aliases that
// point outside the roster are ignored.
func New(teams []string, aliases map[string]string) *Roster {
	r := &Roster{
		index:   make(map[string]string, len(teams)),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, t := range teams {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := r.index[key]; ok {
			continue
		}
		r.index[key] = t
		r.teams = append(r.teams, t)
	}
	sort.Strings(r.teams)

	for alias, target := range aliases {
		canonical, ok := r.index[strings.ToLower(strings.TrimSpace(target))]
		if !ok {
			continue
		}
		r.aliases[strings.ToLower(strings.TrimSpace(alias))] = canonical
	}
	return r
}

// Default returns the built-in roster.
func Default() *Roster {
	return New(DefaultTeams, DefaultAliases)
}

// Teams returns a copy of the sorted team names.
func (r *Roster) Teams() []string {
	out := make([]string, len(r.teams))
	copy(out, r.teams)
	return out
}

// Len reports the number of teams.
func (r *Roster) Len() int { return len(r.teams) }

// Contains reports whether name is a roster team (exact spelling).
func (r *Roster) Contains(name string) bool {
	canonical, ok := r.index[strings.ToLower(name)]
	return ok && canonical == name
}

// Normalize maps user input to a canonical roster name. Aliases are checked
// first, then a case-insensitive roster match. Unknown names come back
// trimmed but otherwise unchanged.
func (r *Roster) Normalize(name string) string {
	clean := strings.TrimSpace(name)
	key := strings.ToLower(clean)
	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	if canonical, ok := r.index[key]; ok {
		return canonical
	}
	return clean
}

// fileFormat is the on-disk roster layout.
type fileFormat struct {
	Teams   []string          `yaml:"teams"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadFile reads a YAML roster:
//
//	teams: [Arsenal, Chelsea]
//	aliases:
//	  gunners: Arsenal
func LoadFile(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	r := New(f.Teams, f.Aliases)
	if r.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least two teams, got %d", ErrInvalidRoster, r.Len())
	}
	return r, nil
}
