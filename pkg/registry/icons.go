package registry

import "strings"

// DefaultIcon is used for packages without a known icon
const DefaultIcon = "fas fa-cube"

// icons maps lowercase display names to Font Awesome classes
var icons = map[string]string{
	"vim":         "fas fa-terminal",
	"neovim":      "fas fa-terminal",
	"firefox":     "fas fa-globe",
	"gimp":        "fas fa-paint-brush",
	"vlc":         "fas fa-play-circle",
	"inkscape":    "fas fa-vector-square",
	"thunderbird": "fas fa-envelope",
	"htop":        "fas fa-chart-line",
	"krita":       "fas fa-paint-roller",
	"discord":     "fab fa-discord",
	"spotify":     "fab fa-spotify",
	"libreoffice": "fas fa-file-alt",
}

// Icon returns the icon class for a display name
func Icon(name string) string {
	if icon, ok := icons[strings.ToLower(name)]; ok {
		return icon
	}
	return DefaultIcon
}

// IconFor prefers the registry entry's icon and falls back to Icon.
// Results are memoized since listings ask for every installed package.
func (r *Registry) IconFor(name string) string {
	key := strings.ToLower(name)
	if icon, ok := r.icons.Load(key); ok {
		return icon.(string)
	}

	icon := Icon(name)
	if entry, err := r.Load(key); err == nil && entry.Icon != "" {
		icon = entry.Icon
	}
	r.icons.Store(key, icon)
	return icon
}
