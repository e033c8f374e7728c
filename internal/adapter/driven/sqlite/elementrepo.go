package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ElementStore = (*ElementRepo)(nil)

// ElementRepo is the SQLite implementation of the ElementStore port interface.
// Elements are stored as an adjacency list; project rows have a NULL parent.
type ElementRepo struct {
	db *DB
}

// NewElementRepo creates a new ElementRepo backed by the given DB.
func NewElementRepo(db *DB) *ElementRepo {
	return &ElementRepo{db: db}
}

// EnsurePath walks path segment by segment under source, inserting any
// element that does not exist yet, and returns the deepest element with its
// ancestors linked through Parent. A single-segment path yields a project.
func (r *ElementRepo) EnsurePath(ctx context.Context, reviewID, source, path string, kind model.ElementKind) (*model.Element, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("ensure path %q: %w", path, model.ErrInvalidElementTree)
	}
	if kind != model.ElementKindFile && kind != model.ElementKindFolder {
		return nil, fmt.Errorf("ensure path %q with kind %q: %w", path, kind, model.ErrInvalidElementTree)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur *model.Element
	for i, name := range segments {
		k := model.ElementKindFolder
		switch {
		case i == 0:
			k = model.ElementKindProject
		case i == len(segments)-1:
			k = kind
		}

		var parentID any
		if cur != nil {
			parentID = cur.ID
		}

		id, err := ensureElement(ctx, tx, reviewID, source, parentID, k, name)
		if err != nil {
			return nil, fmt.Errorf("ensure element %q of %q: %w", name, path, err)
		}

		next := &model.Element{ID: id, ReviewID: reviewID, Kind: k, Name: name, Source: source}
		if cur != nil {
			cur.AddChild(next)
		}
		cur = next
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return cur, nil
}

// ensureElement returns the ID of the matching element, inserting it first
// when absent. parentID is nil for projects; IS matches NULL as well as values.
func ensureElement(ctx context.Context, tx *sql.Tx, reviewID, source string, parentID any, kind model.ElementKind, name string) (int64, error) {
	const lookup = `
		SELECT id FROM elements
		WHERE review_id = ? AND source = ? AND parent_id IS ? AND kind = ? AND name = ?
	`

	var id int64
	err := tx.QueryRowContext(ctx, lookup, reviewID, source, parentID, string(kind), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("look up element: %w", err)
	}

	const insert = `
		INSERT INTO elements (review_id, parent_id, source, kind, name)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := tx.ExecContext(ctx, insert, reviewID, parentID, source, string(kind), name)
	if err != nil {
		return 0, fmt.Errorf("insert element: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

// GetProjects loads every element of a review and links them into trees. The
// returned projects are ordered by source and name; children keep insertion
// order.
func (r *ElementRepo) GetProjects(ctx context.Context, reviewID string) ([]*model.Element, error) {
	const query = `
		SELECT id, parent_id, source, kind, name
		FROM elements
		WHERE review_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query elements for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	type row struct {
		element  *model.Element
		parentID sql.NullInt64
	}

	var all []row
	byID := make(map[int64]*model.Element)
	for rows.Next() {
		var (
			e        = &model.Element{ReviewID: reviewID}
			parentID sql.NullInt64
			kind     string
		)
		if err := rows.Scan(&e.ID, &parentID, &e.Source, &kind, &e.Name); err != nil {
			return nil, fmt.Errorf("scan element row: %w", err)
		}
		e.Kind = model.ElementKind(kind)
		byID[e.ID] = e
		all = append(all, row{element: e, parentID: parentID})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate element rows: %w", err)
	}

	var projects []*model.Element
	for _, rw := range all {
		if !rw.parentID.Valid {
			projects = append(projects, rw.element)
			continue
		}
		parent, ok := byID[rw.parentID.Int64]
		if !ok {
			return nil, fmt.Errorf("element %d has unknown parent %d: %w", rw.element.ID, rw.parentID.Int64, model.ErrInvalidElementTree)
		}
		parent.AddChild(rw.element)
	}

	slices.SortStableFunc(projects, func(a, b *model.Element) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return projects, nil
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, model.PathSeparator) {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
