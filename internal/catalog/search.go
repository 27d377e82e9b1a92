package catalog

import "strings"

// Filter applies all non-empty criteria and returns matching games.
type Filter struct {
	Tag      string
	Platform string
	Search   string // matches title, subtitle, or any tag
}

// Apply returns the subset of games matching all non-empty filter fields.
func (f Filter) Apply(games []Game) []Game {
	var out []Game
	for _, g := range games {
		if f.Tag != "" && !containsFold(g.Tags, f.Tag) {
			continue
		}
		if f.Platform != "" && !containsFold(g.Platforms, f.Platform) {
			continue
		}
		if f.Search != "" && !matchesSearch(g, f.Search) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// ByID returns the first game with the given ID, or nil.
func ByID(games []Game, id uint8) *Game {
	for i := range games {
		if games[i].ID == id {
			return &games[i]
		}
	}
	return nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func matchesSearch(g Game, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(g.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(g.Subtitle), q) {
		return true
	}
	for _, t := range g.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
