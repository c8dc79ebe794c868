// Package model defines core data structures and types for the wiki application.
package model

import (
	"html/template"
	"time"
)

type PageID string

type UserID string

// WikiPage is a single wiki page belonging to one package.
type WikiPage struct {
	ID PageID

	Pkg   PackageRef
	Title string

	Content template.HTML

	// Used for cache busting.
	// We cannot use the content hash because the content is already rendered.
	MDContentHash string

	Markdown     []byte
	CreatedDate  time.Time
	ModifiedDate time.Time

	Owner UserID
}

func (p *WikiPage) GetTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return "Untitled - " + p.CreatedDate.Format("2006-01-02")
}
