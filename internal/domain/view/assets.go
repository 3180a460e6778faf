package view

import (
	"io/fs"
	"net/url"
	"strings"
)

// Asset URLs used by the web layer.
const (
	AssetPrefix    = "/assets/"
	PlaceholderURL = "/static/placeholder.svg"
	logoExt        = ".png"
)

// TeamDisplay is what the page needs to draw a team badge.
type TeamDisplay struct {
	Name        string
	LogoURL     string
	Placeholder bool
}

// AssetResolver finds team logos in a filesystem of <team>.png files.
type AssetResolver struct {
	fsys fs.FS
}

// NewAssetResolver returns a resolver over fsys. A nil fsys resolves every
// team to the placeholder.
func NewAssetResolver(fsys fs.FS) *AssetResolver {
	return &AssetResolver{fsys: fsys}
}

// Resolve returns the logo for team, or the placeholder when no asset
// exists. It never fails.
func (r *AssetResolver) Resolve(team string) TeamDisplay {
	name := LogoFile(team)
	if r == nil || r.fsys == nil || name == "" {
		return TeamDisplay{Name: team, LogoURL: PlaceholderURL, Placeholder: true}
	}
	if st, err := fs.Stat(r.fsys, name); err != nil || st.IsDir() {
		return TeamDisplay{Name: team, LogoURL: PlaceholderURL, Placeholder: true}
	}
	return TeamDisplay{Name: team, LogoURL: AssetPrefix + url.PathEscape(name)}
}

// LogoFile maps a team name to its asset file name. Names that could
// escape the asset root map to "".
func LogoFile(team string) string {
	team = strings.TrimSpace(team)
	if team == "" || strings.ContainsAny(team, `/\`) || team == "." || team == ".." {
		return ""
	}
	name := team + logoExt
	if !fs.ValidPath(name) {
		return ""
	}
	return name
}
