// Package templates holds the templ components for the staging dashboard,
// plus the view types the web layer fills in.
package templates

import (
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/CsvCombine/internal/core"
)

// Flash is one banner message carried across a redirect.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Flash levels the dashboard styles understand.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// DashboardProps carries everything the dashboard page renders.
type DashboardProps struct {
	Files       []core.StagedFile
	Flashes     []Flash
	Recent      []core.Activity
	Accept      string // file input accept attribute, e.g. ".csv"
	Extensions  string // human-readable list of allowed extensions
	MaxFileSize string // humanized per-file limit
}

// removeURL builds the removal endpoint for one staged file.
func removeURL(name string) templ.SafeURL {
	return templ.URL("/remove/" + url.PathEscape(name))
}

// describeActivity renders one feed entry as a short sentence.
func describeActivity(a core.Activity) string {
	switch a.Kind {
	case core.ActivityUpload:
		if a.Detail != "" {
			return fmt.Sprintf("uploaded %s (%s)", a.File, a.Detail)
		}
		return "uploaded " + a.File
	case core.ActivityRemove:
		return "removed " + a.File
	case core.ActivityCombine:
		if a.Detail != "" {
			return fmt.Sprintf("combined %s into %s", a.Detail, a.File)
		}
		return "combined into " + a.File
	default:
		return string(a.Kind) + " " + a.File
	}
}
