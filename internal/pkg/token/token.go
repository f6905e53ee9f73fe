package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generate builds a ticket code in the form <DEPT3>-<millis4>-<seq3>,
// e.g. "CAR-4821-007" for cardiology. The sequence counter is per department
// and per operating period, so the code cannot collide within one day.
func Generate(department string, seq int, now time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(department))
	if len(code) > 3 {
		code = code[:3]
	}

	millis := strconv.FormatInt(now.UnixMilli(), 10)
	frag := millis
	if len(millis) > 4 {
		frag = millis[len(millis)-4:]
	}

	return fmt.Sprintf("%s-%s-%03d", code, frag, seq)
}
