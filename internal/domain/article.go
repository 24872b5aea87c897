package domain

import (
	"strconv"
	"time"
)

type Article struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	Views     int        `json:"views"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

var ArticleSchema = register(Schema{
	Collection: CollectionArticles,
	Resource:   "article",
	Fields: withBase(
		Field{Name: "title", Column: "title", Required: true},
		Field{Name: "content", Column: "content", Required: true},
		Field{Name: "category", Column: "category", Required: true},
		Field{Name: "views", Column: "views"},
		Field{Name: "tags", Column: "tags"},
	),
	Search:    []string{"title", "content"},
	Filters:   []string{"category"},
	CSVHeader: []string{"Title", "Category", "Views", "Tags", "Created"},
	CSVFields: []string{"title", "category", "views", "tags", "createdAt"},
})

func (a Article) RecordID() string { return a.ID }
func (a Article) CreatedTime() time.Time { return a.CreatedAt }
func (a Article) Label() string { return a.Title }
func (a Article) Amount() float64 { return float64(a.Views) }
func (a Article) SortTime() time.Time { return a.CreatedAt }
func (a Article) TagSet() []string { return a.Tags }

func (a Article) Attr(field string) string {
	switch field {
	case "id":
		return a.ID
	case "title":
		return a.Title
	case "content":
		return a.Content
	case "category":
		return a.Category
	case "views":
		return strconv.Itoa(a.Views)
	case "tags":
		return joinTags(a.Tags)
	case "createdAt":
		return a.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func (a *Article) ApplyDefaults() {
	if a.Tags == nil {
		a.Tags = []string{}
	}
}
