package core

import (
	"fmt"
	"time"
)

// Tenure renders how long ago a record was created: "12d", "5mo", "2y",
// "1y 3mo". Months are 30 days. Display only.
func Tenure(createdAt, now time.Time) string {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if days < 30 {
		return fmt.Sprintf("%dd", days)
	}
	months := days / 30
	if months < 12 {
		return fmt.Sprintf("%dmo", months)
	}
	years, rem := months/12, months%12
	if rem > 0 {
		return fmt.Sprintf("%dy %dmo", years, rem)
	}
	return fmt.Sprintf("%dy", years)
}
