package adminaction

import (
	"context"
	"encoding/json"

	"rentals/pkg/db"
)

func Insert(ctx context.Context, q db.Querier, targetID string, actionType ActionType, reason, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO admin_actions (target_id, action_type, reason, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, targetID, string(actionType), reason, actor, s)
	return err
}
