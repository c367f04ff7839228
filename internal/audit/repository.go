package audit

import (
	"context"
	"encoding/json"

	"rentals/pkg/db"
)

// Target kinds recorded in audit_logs.target_type.
const (
	TargetRequest  = "request"
	TargetProperty = "property"
)

func Insert(ctx context.Context, q db.Querier, targetType, targetID, action, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO audit_logs (target_type, target_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, targetType, targetID, action, actor, s)
	return err
}
