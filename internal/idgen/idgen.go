// Package idgen generates identifiers for items and journal records.
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
	nodeID   int64 = 1
)

// SetNode selects the snowflake node number. It must be called before the
// first Int64 call to take effect.
func SetNode(id int64) {
	nodeID = id
}

// Int64 returns a time-ordered numeric ID.
func Int64() (int64, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	if nodeErr != nil {
		return 0, fmt.Errorf("initializing snowflake node: %w", nodeErr)
	}
	return node.Generate().Int64(), nil
}

// Token returns a random URL-safe identifier.
func Token() string {
	return uuid.NewString()
}
