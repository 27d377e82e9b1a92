package catalog

import (
	"fmt"
	"strings"
)

// Link identifies one fetchable resource and where it was materialized.
// LocalPath is empty until the file at URL has been stored at Revision.
type Link struct {
	URL       string `json:"url" yaml:"url"`
	Name      string `json:"name" yaml:"name"`
	Revision  uint64 `json:"revision" yaml:"revision"`
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}

// NeedsFetch reports whether the link has no materialized file.
func (l Link) NeedsFetch() bool {
	return l.LocalPath == ""
}

// Archive is the game's downloadable payload. NeedUpdate gates an explicit
// user-triggered download; archives are never fetched automatically.
type Archive struct {
	Link                Link   `json:"link" yaml:"link"`
	NeedExtract         bool   `json:"need_extract" yaml:"need_extract"`
	StripTopLevelFolder bool   `json:"strip_top_level_folder" yaml:"strip_top_level_folder"`
	PathToExecutable    string `json:"path_to_executable" yaml:"path_to_executable"`
	NeedUpdate          bool   `json:"need_update" yaml:"need_update"`
}

// Game is one catalog entry.
type Game struct {
	ID              uint8    `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Subtitle        string   `json:"subtitle" yaml:"subtitle"`
	Description     string   `json:"description" yaml:"description"`
	BackgroundImage Link     `json:"background_image" yaml:"background_image"`
	NavigationIcon  Link     `json:"navigation_icon" yaml:"navigation_icon"`
	Archive         Archive  `json:"game_archive" yaml:"game_archive"`
	Version         string   `json:"version" yaml:"version"`
	Platforms       []string `json:"platform" yaml:"platform"`
	Tags            []string `json:"tags" yaml:"tags"`
	Weight          int      `json:"weight" yaml:"weight"`
}

// FolderName returns the per-game directory name: the lowercased title
// restricted to ASCII letters and digits.
func (g Game) FolderName() string {
	var b strings.Builder
	for _, r := range strings.ToLower(g.Title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("game-%d", g.ID)
	}
	return b.String()
}

// Clone returns a deep copy so callers never share slices with the catalog.
func (g Game) Clone() Game {
	out := g
	if g.Platforms != nil {
		out.Platforms = append([]string(nil), g.Platforms...)
	}
	if g.Tags != nil {
		out.Tags = append([]string(nil), g.Tags...)
	}
	return out
}

// Downloaded reports whether the archive is materialized at its current revision.
func (g Game) Downloaded() bool {
	return g.Archive.Link.LocalPath != "" && !g.Archive.NeedUpdate
}
