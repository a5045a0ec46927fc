package content

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	imagePattern = regexp.MustCompile(`^image/`)
)

var errRelationRequired = validation.NewError("validation_relation_required", "must reference a document")

// requiredRelation fails for empty Relation values.
var requiredRelation = validation.By(func(v any) error {
	if r, ok := v.(interface{ IsZero() bool }); ok && r.IsZero() {
		return errRelationRequired
	}
	return nil
})

var slugRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 200),
	validation.Match(slugPattern).Error("must be lowercase letters, digits and dashes"),
}

// Validate checks required fields and enums.
func (p *Post) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&p.Slug, slugRules...),
		validation.Field(&p.Excerpt, validation.Required),
		validation.Field(&p.Content, validation.Required),
		validation.Field(&p.Author, requiredRelation),
		validation.Field(&p.Category, requiredRelation),
		validation.Field(&p.Status, validation.Required,
			validation.In(StatusDraft, StatusPublished, StatusArchived)),
		validation.Field(&p.ReadingTime, validation.Min(0)),
	)
}

// Validate checks required fields and the colour format.
func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Slug, slugRules...),
		validation.Field(&c.Color, validation.Match(colorPattern).Error("must be a hex colour such as #3b82f6")),
	)
}

// Validate checks required fields and the colour format.
func (t *Tag) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Slug, slugRules...),
		validation.Field(&t.Color, validation.Match(colorPattern).Error("must be a hex colour such as #3b82f6")),
	)
}

// Validate checks required fields, the email format and the role.
func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Email, validation.Required, validation.Match(emailPattern).Error("must be a valid email address")),
		validation.Field(&u.Role, validation.Required, validation.In(RoleAdmin, RoleAuthor, RoleEditor)),
	)
}

// Validate requires a URL or a stored file, and an image MIME type when set.
func (m *Media) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.URL, validation.When(m.Filename == "", validation.Required.Error("url or filename is required"))),
		validation.Field(&m.MimeType, validation.Match(imagePattern).Error("must be an image type")),
		validation.Field(&m.Filesize, validation.Min(int64(0))),
	)
}
