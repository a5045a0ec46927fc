package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/folio/internal/richtext"
)

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 200

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single "-" and trims leading and trailing dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// ReadingTime returns the minutes needed to read words, rounded up.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// ContentReadingTime decodes a rich-text value and estimates its reading time.
func ContentReadingTime(v any) int {
	if v == nil {
		return 0
	}
	doc, _ := richtext.Decode(v)
	return ReadingTime(richtext.WordCount(doc))
}

// Hooks applies the before-change and after-read hooks of each collection.
type Hooks struct {
	now         func() time.Time
	localPrefix string
}

// NewHooks creates hooks using now as the clock. A nil now uses time.Now.
func NewHooks(now func() time.Time) *Hooks {
	if now == nil {
		now = time.Now
	}
	return &Hooks{now: now}
}

// SetLocalMediaPrefix sets the URL prefix under which local media files are
// served. Thumbnails under it give way to a hosted rendition.
func (h *Hooks) SetLocalMediaPrefix(prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		h.localPrefix = ""
		return
	}
	h.localPrefix = prefix + "/"
}

func (h *Hooks) isLocal(url string) bool {
	return h.localPrefix != "" && strings.HasPrefix(url, h.localPrefix)
}

// Now returns the hook clock's current time in UTC.
func (h *Hooks) Now() time.Time {
	return h.now().UTC()
}

// BeforeChangePost runs, in order: slug generation, reading time, publish
// stamp. It also fills the default status.
func (h *Hooks) BeforeChangePost(p *Post) {
	if p.Slug == "" && p.Title != "" {
		p.Slug = Slugify(p.Title)
	}
	p.ReadingTime = ContentReadingTime(p.Content)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		t := h.Now()
		p.PublishedAt = &t
	}
}

// BeforeChangeCategory fills the slug from the name.
func (h *Hooks) BeforeChangeCategory(c *Category) {
	if c.Slug == "" && c.Name != "" {
		c.Slug = Slugify(c.Name)
	}
}

// BeforeChangeTag fills the slug from the name.
func (h *Hooks) BeforeChangeTag(t *Tag) {
	if t.Slug == "" && t.Name != "" {
		t.Slug = Slugify(t.Name)
	}
}

// BeforeChangeUser normalises the email and fills the default role.
func (h *Hooks) BeforeChangeUser(u *User) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleAuthor
	}
}

// BeforeChangeMedia mirrors a hosted URL into the original and primary URLs.
func (h *Hooks) BeforeChangeMedia(m *Media) {
	if m.CloudinaryURL == "" {
		return
	}
	if m.OriginalURL == "" {
		m.OriginalURL = m.CloudinaryURL
	}
	if m.URL == "" {
		m.URL = m.CloudinaryURL
	}
}

// AfterReadMedia makes sure url and thumbnailUrl are set when any rendition
// carries a usable URL.
func (h *Hooks) AfterReadMedia(m *Media) {
	var thumb, card, tablet *ImageSize
	if m.Sizes != nil {
		thumb, card, tablet = m.Sizes.Thumbnail, m.Sizes.Card, m.Sizes.Tablet
	}
	if m.URL == "" {
		m.URL = firstNonEmpty(
			m.CloudinaryURL,
			m.OriginalURL,
			sizeURL(thumb),
			sizeURL(card),
			sizeURL(tablet),
		)
	}
	preview := firstNonEmpty(sizeURL(thumb), m.CloudinaryURL, m.URL)
	if preview != "" && (m.ThumbnailURL == "" || h.isLocal(m.ThumbnailURL)) {
		m.ThumbnailURL = preview
	}
}

func sizeURL(s *ImageSize) string {
	if s == nil {
		return ""
	}
	return firstNonEmpty(s.CloudinaryURL, s.URL)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
