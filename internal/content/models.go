// Package content defines the blog collections, their hooks and validation.
package content

import "time"

// Collection names.
const (
	CollectionPosts      = "posts"
	CollectionMedia      = "media"
	CollectionCategories = "categories"
	CollectionTags       = "tags"
	CollectionUsers      = "users"
)

// Collections lists every collection in load order (dependencies first).
var Collections = []string{
	CollectionMedia,
	CollectionUsers,
	CollectionCategories,
	CollectionTags,
	CollectionPosts,
}

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Role is a user's editorial role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleEditor Role = "editor"
)

// SEO holds search metadata shared by posts, categories and tags.
type SEO struct {
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	Keywords        string `json:"keywords,omitempty"`
}

// Post is a blog article. Content is the rich-text JSON tree as stored.
type Post struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Slug            string             `json:"slug"`
	Excerpt         string             `json:"excerpt"`
	Content         any                `json:"content"`
	FeaturedImage   Relation[Media]    `json:"featuredImage"`
	Author          Relation[User]     `json:"author"`
	Category        Relation[Category] `json:"category"`
	Tags            []Relation[Tag]    `json:"tags"`
	Status          Status             `json:"status"`
	PublishedAt     *time.Time         `json:"publishedAt,omitempty"`
	SEO             *SEO               `json:"seo,omitempty"`
	ReadingTime     int                `json:"readingTime"`
	CloudinaryImage string             `json:"cloudinaryImage,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// ImageSize is one generated rendition of an uploaded image.
type ImageSize struct {
	URL           string `json:"url,omitempty"`
	CloudinaryURL string `json:"cloudinaryUrl,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
}

// MediaSizes are the named renditions.
type MediaSizes struct {
	Thumbnail *ImageSize `json:"thumbnail,omitempty"`
	Card      *ImageSize `json:"card,omitempty"`
	Tablet    *ImageSize `json:"tablet,omitempty"`
}

// Media is an uploaded image.
type Media struct {
	ID            string      `json:"id"`
	URL           string      `json:"url"`
	Filename      string      `json:"filename"`
	MimeType      string      `json:"mimeType"`
	Filesize      int64       `json:"filesize"`
	Width         int         `json:"width,omitempty"`
	Height        int         `json:"height,omitempty"`
	Alt           string      `json:"alt,omitempty"`
	Caption       string      `json:"caption,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	Photographer  string      `json:"photographer,omitempty"`
	CloudinaryURL string      `json:"cloudinaryUrl,omitempty"`
	OriginalURL   string      `json:"originalUrl,omitempty"`
	ThumbnailURL  string      `json:"thumbnailUrl,omitempty"`
	Sizes         *MediaSizes `json:"sizes,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Category groups posts by topic.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	SEO         *SEO      `json:"seo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tag is a free-form post label.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	SEO         *SEO      `json:"seo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Social holds a user's profile links.
type Social struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// User is a post author.
type User struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      Role            `json:"role"`
	Bio       string          `json:"bio,omitempty"`
	Avatar    Relation[Media] `json:"avatar"`
	Social    *Social         `json:"social,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
