package query

import (
	"fmt"
	"strings"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

// mutationKeywords is the fixed denylist checked as case-insensitive
// substrings over the whole sanitized query. The gate guarantees
// mutation-safety only; identity scoping is enforced at generation time.
var mutationKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate",
}

// Sanitize strips code fencing and quoting from model output. With fences
// present, the first fenced block containing a "select" token wins; a
// leading "sql" language tag is dropped.
func Sanitize(raw string) string {
	q := strings.TrimSpace(raw)
	if strings.Contains(q, "```") {
		for _, part := range strings.Split(q, "```") {
			if strings.Contains(strings.ToLower(part), "select") {
				q = strings.TrimSpace(part)
				q = strings.TrimSpace(strings.TrimPrefix(q, "sql"))
				break
			}
		}
	}
	q = strings.Trim(q, `"'`)
	return strings.TrimSpace(q)
}

// Validate is the hard gate before execution: the query must start with the
// selection keyword and contain no mutating/DDL keyword anywhere. A
// rejected query is never executed.
func Validate(query string) error {
	lower := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lower, "select") {
		return fmt.Errorf("%w: only SELECT queries allowed", contractx.ErrQueryRejected)
	}
	for _, keyword := range mutationKeywords {
		if strings.Contains(lower, keyword) {
			return fmt.Errorf("%w: operation not allowed", contractx.ErrQueryRejected)
		}
	}
	return nil
}
