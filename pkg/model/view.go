// pkg/model/view.go
package model

import "fmt"

// View is one of the five mutually exclusive workbench views
type View string

const (
	ViewUpload   View = "upload"
	ViewClean    View = "clean"
	ViewAnalyze  View = "analyze"
	ViewPipeline View = "pipeline"
	ViewExport   View = "export"
)

// DefaultView is the view shown on startup and after logout
const DefaultView = ViewUpload

// Views lists every valid view in navigation order
var Views = []View{ViewUpload, ViewClean, ViewAnalyze, ViewPipeline, ViewExport}

// Valid reports whether v is one of the enumerated views
func (v View) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// ParseView converts a tag into a View
func ParseView(tag string) (View, error) {
	v := View(tag)
	if !v.Valid() {
		return "", fmt.Errorf("unknown view %q", tag)
	}
	return v, nil
}
