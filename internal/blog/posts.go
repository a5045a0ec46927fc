package blog

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/richtext"
)

// Depths used by the post endpoints.
const (
	DefaultPostDepth = 2
	PublicFeedDepth  = 3
)

// Post returns a post by id.
func (s *Service) Post(ctx context.Context, id string, depth int) (*content.Post, string, error) {
	return Get[content.Post](ctx, s, id, depth)
}

// PostBySlug returns a post by slug.
func (s *Service) PostBySlug(ctx context.Context, slug string, depth int) (*content.Post, string, error) {
	return GetByHandle[content.Post](ctx, s, slug, depth)
}

// Posts lists posts.
func (s *Service) Posts(ctx context.Context, p ListParams) (*Page[*content.Post], error) {
	return List[content.Post](ctx, s, p)
}

// PublicPosts lists published posts, newest first.
func (s *Service) PublicPosts(ctx context.Context, limit, page int) (*Page[*content.Post], error) {
	return List[content.Post](ctx, s, ListParams{
		Status: string(content.StatusPublished),
		Sort:   "-publishedAt",
		Limit:  limit,
		Page:   page,
		Depth:  PublicFeedDepth,
	})
}

// PatchPost applies a shallow merge to a post.
func (s *Service) PatchPost(ctx context.Context, id string, patch map[string]any, ifMatch string) (*content.Post, string, error) {
	return Patch[content.Post](ctx, s, id, patch, ifMatch, DefaultPostDepth)
}

// PostContent returns the stored, unpopulated content of a post.
func (s *Service) PostContent(ctx context.Context, id string) (any, error) {
	p, _, err := s.Post(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	return p.Content, nil
}

// ResetMessage is the paragraph written by ResetPostContent.
const ResetMessage = "Content has been reset. You can now add new blocks safely."

// ResetPostContent replaces a post's content with a single paragraph.
func (s *Service) ResetPostContent(ctx context.Context, id string) error {
	_, _, err := s.PatchPost(ctx, id, map[string]any{"content": content.ResetContent(ResetMessage)}, "")
	return err
}

// ResetAllContent resets every post's content. Posts that fail to update
// are logged and skipped; the number of reset posts is returned.
func (s *Service) ResetAllContent(ctx context.Context) (int, error) {
	// every post has a slug, so the handle index covers them all
	bySlug, err := s.db.Handles(ctx, content.CollectionPosts)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range bySlug {
		if err := s.ResetPostContent(ctx, id); err != nil {
			s.logger.Warn("reset content failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		count++
	}
	return count, nil
}

// RenderPost renders a post's content. The post should be loaded with
// depth >= 1 so its media is populated.
func (s *Service) RenderPost(p *content.Post, opts ...richtext.Option) *richtext.Result {
	return s.RenderContent(p.Content, opts...)
}

// RenderContent renders a decoded content value with the service's render
// options.
func (s *Service) RenderContent(v any, opts ...richtext.Option) *richtext.Result {
	return s.render(func(all []richtext.Option) *richtext.Result {
		return richtext.RenderValue(v, all...)
	}, opts)
}

// RenderJSON renders raw JSON content with the service's render options.
func (s *Service) RenderJSON(data []byte, opts ...richtext.Option) *richtext.Result {
	return s.render(func(all []richtext.Option) *richtext.Result {
		return richtext.RenderJSON(data, all...)
	}, opts)
}

func (s *Service) render(fn func([]richtext.Option) *richtext.Result, opts []richtext.Option) *richtext.Result {
	all := make([]richtext.Option, 0, len(s.renderOp)+len(opts)+1)
	all = append(all, richtext.WithLogger(s.logger))
	all = append(all, s.renderOp...)
	all = append(all, opts...)

	start := time.Now()
	res := fn(all)
	if s.observe != nil {
		s.observe(res, time.Since(start))
	}
	return res
}

// Debug is a snapshot of stored media and the first post.
type Debug struct {
	Media            []*content.Media `json:"media"`
	Post             *content.Post    `json:"post"`
	ContentStructure any              `json:"contentStructure"`
}

// DebugSnapshot returns the first media documents and the first post with
// everything populated.
func (s *Service) DebugSnapshot(ctx context.Context) (*Debug, error) {
	media, err := List[content.Media](ctx, s, ListParams{Limit: 10})
	if err != nil {
		return nil, err
	}
	posts, err := List[content.Post](ctx, s, ListParams{Limit: 1, Depth: PublicFeedDepth})
	if err != nil {
		return nil, err
	}
	out := &Debug{Media: media.Docs}
	if len(posts.Docs) > 0 {
		out.Post = posts.Docs[0]
		out.ContentStructure = out.Post.Content
	}
	return out, nil
}
