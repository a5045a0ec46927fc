// Package seed loads YAML fixtures of blog content into the store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/content"
)

// Fixture is the document set of a seed file. Field names follow the JSON
// shape of each collection.
type Fixture struct {
	Media      []*content.Media    `json:"media"`
	Categories []*content.Category `json:"categories"`
	Tags       []*content.Tag      `json:"tags"`
	Users      []*content.User     `json:"users"`
	Posts      []*content.Post     `json:"posts"`
}

// Report counts what Load did per collection.
type Report struct {
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
}

// Parse reads a YAML fixture. The YAML is converted to JSON first so rich
// text numbers decode the same way as API payloads.
func Parse(r io.Reader) (*Fixture, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return &Fixture{}, nil
		}
		return nil, fmt.Errorf("seed: parse yaml: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("seed: convert fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("seed: decode fixture: %w", err)
	}
	return &f, nil
}

// Load stores every document of f, referenced collections first. Documents
// whose id or handle already exists are skipped.
func Load(ctx context.Context, svc *blog.Service, f *Fixture, logger *slog.Logger) (*Report, error) {
	rep := &Report{Created: map[string]int{}, Skipped: map[string]int{}}

	var docs []content.Document
	for _, m := range f.Media {
		docs = append(docs, m)
	}
	for _, c := range f.Categories {
		docs = append(docs, c)
	}
	for _, t := range f.Tags {
		docs = append(docs, t)
	}
	for _, u := range f.Users {
		docs = append(docs, u)
	}
	for _, p := range f.Posts {
		docs = append(docs, p)
	}

	for _, doc := range docs {
		coll := doc.CollectionName()
		_, err := svc.Create(ctx, doc)
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			rep.Skipped[coll]++
			logger.Debug("seed: skipped existing", slog.String("collection", coll), slog.String("id", doc.DocumentID()))
		case err != nil:
			return rep, fmt.Errorf("seed: %s %q: %w", coll, doc.DocumentID(), err)
		default:
			rep.Created[coll]++
		}
	}
	logger.Info("seed: loaded",
		slog.Any("created", rep.Created),
		slog.Any("skipped", rep.Skipped))
	return rep, nil
}
