package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// UpsertBatch makes sure every label exists and returns the tag ids in the
// order of the first occurrence of each label. Blank and repeated labels are
// skipped.
func (s *TagStore) UpsertBatch(ctx context.Context, labels []string) ([]int64, error) {
	unique := dedupeLabels(labels)
	if len(unique) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO tags (label) VALUES ")
	valueArgs := make([]interface{}, 0, len(unique))

	for i, label := range unique {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(")")
		valueArgs = append(valueArgs, label)
	}
	sb.WriteString(" ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label RETURNING id, label")

	var rows []struct {
		ID    int64  `db:"id"`
		Label string `db:"label"`
	}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, sb.String(), valueArgs...); err != nil {
		return nil, err
	}

	byLabel := make(map[string]int64, len(rows))
	for _, r := range rows {
		byLabel[r.Label] = r.ID
	}

	ids := make([]int64, 0, len(unique))
	for _, label := range unique {
		if id, ok := byLabel[label]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// LinkToPost replaces the tag links of a post.
func (s *TagStore) LinkToPost(ctx context.Context, postID uuid.UUID, tagIDs []int64) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx,
		"DELETE FROM post_tags WHERE post_id = $1",
		postID,
	)
	if err != nil {
		return err
	}

	if len(tagIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO post_tags (post_id, tag_id) VALUES ")
	valueArgs := make([]interface{}, 0, len(tagIDs)+1)
	valueArgs = append(valueArgs, postID)

	for i, tagID := range tagIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(strconv.Itoa(i + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, tagID)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

func (s *TagStore) GetByPostID(ctx context.Context, postID uuid.UUID) ([]string, error) {
	query := `
		SELECT t.label
		FROM tags t
		INNER JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.label`

	var labels []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &labels, query, postID)
	return labels, err
}

func dedupeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
