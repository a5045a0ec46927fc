package content

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/folio/internal/richtext"
)

// IndexFields are the columns the document store keeps beside the JSON body.
type IndexFields struct {
	Handle      string // unique within the collection, may be empty
	Title       string
	Status      string
	PublishedAt *time.Time
	Body        string // plain text for search
}

// Document is implemented by every collection model.
type Document interface {
	validation.Validatable
	CollectionName() string
	DocumentID() string
	SetDocumentID(id string)
	SetTimestamps(created, updated time.Time)
	IndexFields() IndexFields
	// Dehydrate drops populated relation values so only ids are stored.
	Dehydrate()
}

var (
	_ Document = (*Post)(nil)
	_ Document = (*Media)(nil)
	_ Document = (*Category)(nil)
	_ Document = (*Tag)(nil)
	_ Document = (*User)(nil)
)

func (p *Post) CollectionName() string  { return CollectionPosts }
func (p *Post) DocumentID() string      { return p.ID }
func (p *Post) SetDocumentID(id string) { p.ID = id }
func (p *Post) SetTimestamps(created, updated time.Time) {
	p.CreatedAt, p.UpdatedAt = created, updated
}

func (p *Post) IndexFields() IndexFields {
	var body string
	if p.Content != nil {
		doc, _ := richtext.Decode(p.Content)
		body = richtext.PlainText(doc)
	}
	if p.Excerpt != "" {
		body = p.Excerpt + "\n" + body
	}
	return IndexFields{
		Handle:      p.Slug,
		Title:       p.Title,
		Status:      string(p.Status),
		PublishedAt: p.PublishedAt,
		Body:        body,
	}
}

func (p *Post) Dehydrate() {
	p.FeaturedImage = p.FeaturedImage.Unresolved()
	p.Author = p.Author.Unresolved()
	p.Category = p.Category.Unresolved()
	for i := range p.Tags {
		p.Tags[i] = p.Tags[i].Unresolved()
	}
}

func (m *Media) CollectionName() string  { return CollectionMedia }
func (m *Media) DocumentID() string      { return m.ID }
func (m *Media) SetDocumentID(id string) { m.ID = id }
func (m *Media) SetTimestamps(created, updated time.Time) {
	m.CreatedAt, m.UpdatedAt = created, updated
}

func (m *Media) IndexFields() IndexFields {
	return IndexFields{
		Handle: m.Filename,
		Title:  firstNonEmpty(m.Alt, m.Filename),
		Body:   firstNonEmpty(m.Caption, m.Alt),
	}
}

func (m *Media) Dehydrate() {}

func (c *Category) CollectionName() string  { return CollectionCategories }
func (c *Category) DocumentID() string      { return c.ID }
func (c *Category) SetDocumentID(id string) { c.ID = id }
func (c *Category) SetTimestamps(created, updated time.Time) {
	c.CreatedAt, c.UpdatedAt = created, updated
}

func (c *Category) IndexFields() IndexFields {
	return IndexFields{Handle: c.Slug, Title: c.Name, Body: c.Description}
}

func (c *Category) Dehydrate() {}

func (t *Tag) CollectionName() string  { return CollectionTags }
func (t *Tag) DocumentID() string      { return t.ID }
func (t *Tag) SetDocumentID(id string) { t.ID = id }
func (t *Tag) SetTimestamps(created, updated time.Time) {
	t.CreatedAt, t.UpdatedAt = created, updated
}

func (t *Tag) IndexFields() IndexFields {
	return IndexFields{Handle: t.Slug, Title: t.Name, Body: t.Description}
}

func (t *Tag) Dehydrate() {}

func (u *User) CollectionName() string  { return CollectionUsers }
func (u *User) DocumentID() string      { return u.ID }
func (u *User) SetDocumentID(id string) { u.ID = id }
func (u *User) SetTimestamps(created, updated time.Time) {
	u.CreatedAt, u.UpdatedAt = created, updated
}

func (u *User) IndexFields() IndexFields {
	return IndexFields{Handle: u.Email, Title: u.Name, Body: u.Bio}
}

func (u *User) Dehydrate() { u.Avatar = u.Avatar.Unresolved() }

// BeforeChange dispatches to the collection's before-change hook.
func (h *Hooks) BeforeChange(doc Document) {
	switch d := doc.(type) {
	case *Post:
		h.BeforeChangePost(d)
	case *Media:
		h.BeforeChangeMedia(d)
	case *Category:
		h.BeforeChangeCategory(d)
	case *Tag:
		h.BeforeChangeTag(d)
	case *User:
		h.BeforeChangeUser(d)
	}
}

// ResetContent is the single-paragraph document written by content resets.
func ResetContent(text string) map[string]any {
	return map[string]any{
		"root": map[string]any{
			"type":      "root",
			"direction": "ltr",
			"format":    "",
			"indent":    0,
			"version":   1,
			"children": []any{
				map[string]any{
					"type":      "paragraph",
					"direction": "ltr",
					"format":    "",
					"indent":    0,
					"version":   1,
					"children": []any{
						map[string]any{
							"type":    "text",
							"text":    text,
							"detail":  0,
							"format":  0,
							"mode":    "normal",
							"style":   "",
							"version": 1,
						},
					},
				},
			},
		},
	}
}
