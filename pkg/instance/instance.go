package instance

import (
	"os"
	"strings"
)

// ID returns the process identifier used in logs. A platform dyno name wins
// over WORKER_ID.
func ID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
