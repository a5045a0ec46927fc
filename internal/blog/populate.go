package blog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/richtext"
)

// afterRead runs the read hooks and populates relations to depth. Each level
// of depth resolves one more hop: a post at depth 1 gets its author, at
// depth 2 also the author's avatar.
func (s *Service) afterRead(ctx context.Context, doc content.Document, depth int) error {
	switch d := doc.(type) {
	case *content.Media:
		s.hooks.AfterReadMedia(d)
	case *content.User:
		return s.populateUser(ctx, d, depth)
	case *content.Post:
		return s.populatePost(ctx, d, depth)
	}
	return nil
}

func fetch[T any, P docPtr[T]](ctx context.Context, s *Service, ids []string) (map[string]P, error) {
	out := make(map[string]P, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.GetMany(ctx, collectionOf[T, P](), ids)
	if err != nil {
		return nil, err
	}
	for id, r := range rows {
		doc, err := decodeRow[T, P](r)
		if err != nil {
			return nil, err
		}
		out[id] = doc
	}
	return out, nil
}

// resolve returns r populated from docs. Missing documents leave the bare id.
func resolve[T any](r content.Relation[T], docs map[string]*T) content.Relation[T] {
	if r.ID == "" {
		return r
	}
	if d, ok := docs[r.ID]; ok {
		return content.Populated(r.ID, d)
	}
	return r.Unresolved()
}

func (s *Service) populateUser(ctx context.Context, u *content.User, depth int) error {
	if depth <= 0 {
		return nil
	}
	media, err := s.fetchMedia(ctx, nonEmpty(u.Avatar.ID))
	if err != nil {
		return err
	}
	u.Avatar = resolve(u.Avatar, media)
	return nil
}

func (s *Service) fetchMedia(ctx context.Context, ids []string) (map[string]*content.Media, error) {
	media, err := fetch[content.Media](ctx, s, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range media {
		s.hooks.AfterReadMedia(m)
	}
	return media, nil
}

func (s *Service) populatePost(ctx context.Context, p *content.Post, depth int) error {
	if depth <= 0 {
		return nil
	}

	users, err := fetch[content.User](ctx, s, nonEmpty(p.Author.ID))
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := s.populateUser(ctx, u, depth-1); err != nil {
			return err
		}
	}
	p.Author = resolve(p.Author, users)

	cats, err := fetch[content.Category](ctx, s, nonEmpty(p.Category.ID))
	if err != nil {
		return err
	}
	p.Category = resolve(p.Category, cats)

	tags, err := fetch[content.Tag](ctx, s, content.RelationIDs(p.Tags))
	if err != nil {
		return err
	}
	for i := range p.Tags {
		p.Tags[i] = resolve(p.Tags[i], tags)
	}

	contentIDs := richtext.MediaIDs(p.Content)
	media, err := s.fetchMedia(ctx, append(nonEmpty(p.FeaturedImage.ID), contentIDs...))
	if err != nil {
		return err
	}
	p.FeaturedImage = resolve(p.FeaturedImage, media)

	if len(contentIDs) == 0 {
		return nil
	}
	lookup := make(map[string]map[string]any, len(media))
	for id, m := range media {
		obj, err := toObject(m)
		if err != nil {
			return err
		}
		lookup[id] = obj
	}
	p.Content = richtext.PopulateMedia(p.Content, lookup)
	return nil
}

// toObject converts a model into the generic form used inside rich text.
func toObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("blog: encode: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("blog: decode: %w", err)
	}
	return obj, nil
}
