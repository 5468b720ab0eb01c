package supervisor

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newSpawnID returns a ULID identifying one spawn, used to correlate log
// lines and journal entries across restarts of the same agent.
func newSpawnID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
