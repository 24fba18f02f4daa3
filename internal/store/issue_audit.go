package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

// The issue-tracking tables belong to another system; this query only reads them.
const findIncompleteIssuesSQL = `
SELECT
    i.id::text,
    COALESCE(i.title, ''),
    COALESCE(w.name, ''),
    COALESCE(p.name, ''),
    (i.description IS NULL OR btrim(i.description) = '') AS missing_description,
    (t.id IS NULL) AS missing_theme
FROM issues i
LEFT JOIN themes t ON t.id = i.theme_id
LEFT JOIN pillars p ON p.id = t.pillar_id
LEFT JOIN workspaces w ON w.id = i.workspace_id
WHERE i.description IS NULL
   OR btrim(i.description) = ''
   OR t.id IS NULL
ORDER BY w.name NULLS LAST, i.created_at DESC
LIMIT $1`

type issueAuditStore struct {
	conn db.DBTX
}

func newIssueAuditStore(conn db.DBTX) IssueAuditStore {
	return &issueAuditStore{conn: conn}
}

func (s *issueAuditStore) FindIncomplete(ctx context.Context, limit int) ([]model.IssueFinding, error) {
	rows, err := s.conn.Query(ctx, findIncompleteIssuesSQL, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.IssueFinding, error) {
		var f model.IssueFinding
		err := row.Scan(&f.IssueID, &f.Title, &f.Workspace, &f.Pillar, &f.MissingDescription, &f.MissingTheme)
		return f, err
	})
}
