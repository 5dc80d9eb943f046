package assetsync

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out client-side identifiers for assets that have not been saved yet
// and for chat messages. Identifiers are unique within the process.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator creates a new IDGenerator
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Next returns a fresh identifier: prefix, sequence number and a random suffix
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if g.prefix == "" {
		return fmt.Sprintf("%d-%s", n, suffix)
	}
	return fmt.Sprintf("%s-%d-%s", g.prefix, n, suffix)
}
