package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNumber builds a human-readable, unique order number of the
// form ORD-20260901-3F9A21C4. Uniqueness comes from the UUID-derived suffix;
// the date prefix keeps numbers sortable for support staff.
func GenerateOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}
