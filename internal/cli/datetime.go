package cli

import (
	"strings"
	"time"

	"lobster-cli/internal/ledger"
	"lobster-cli/internal/model"
)

// parseDay resolves a --date value: "", "today", "yesterday" or YYYY-MM-DD in
// now's location.
func parseDay(raw string, now time.Time) (time.Time, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", "today":
		return ledger.StartOfDay(now), nil
	case "yesterday":
		return ledger.StartOfDay(now).AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(model.DateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, model.Invalid("date", "expected YYYY-MM-DD, today or yesterday")
	}
	return t, nil
}
