package id

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide snowflake node. Only the first call has
// any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	if err != nil {
		return fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return nil
}

// New returns a time-ordered int64 id. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}

// NodeFor maps an arbitrary instance name (hostname, worker id) onto the
// snowflake node range so replicas started without an explicit node id
// rarely collide.
func NodeFor(name string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum32() % uint32(1<<snowflake.NodeBits))
}

// NewCorrelationID returns an opaque id used to tie log lines, attempt rows
// and jobs of a single ingestion together.
func NewCorrelationID() string {
	return uuid.NewString()
}
