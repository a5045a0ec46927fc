package docstore

import (
	"context"
	"fmt"
	"strings"
)

// Query selects a page of one collection.
type Query struct {
	Collection string
	Status     string // empty matches any status
	Sort       string // field name, "-" prefix for descending
	Limit      int
	Offset     int
}

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
	"title":       "title",
	"name":        "title",
	"slug":        "handle",
}

// DefaultSort is used when Query.Sort is empty or unknown.
const DefaultSort = "-createdAt"

func orderBy(sort string) string {
	dir := "ASC"
	field := sort
	if strings.HasPrefix(sort, "-") {
		dir, field = "DESC", sort[1:]
	}
	col, ok := sortColumns[field]
	if !ok {
		return orderBy(DefaultSort)
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

// List returns the rows matching q plus the total number of matches ignoring
// Limit and Offset.
func (db *DB) List(ctx context.Context, q Query) ([]Row, int, error) {
	where := "collection = ?"
	args := []any{q.Collection}
	if q.Status != "" {
		where += " AND status = ?"
		args = append(args, q.Status)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("docstore: count: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM documents WHERE `+where+` ORDER BY `+orderBy(q.Sort)+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("docstore: list: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}
