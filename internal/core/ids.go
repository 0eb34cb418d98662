package core

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var idCounter atomic.Uint64

// newID builds "<unix millis>_<counter>_<random>", unique within a process
// even for ids minted in the same millisecond.
func newID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d_%d_%s", time.Now().UnixMilli(), idCounter.Add(1), random)
}
