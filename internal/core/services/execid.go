package services

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// ExecutionIDs generates trace identifiers of the form plugin:unix-millis:sequence.
// The snowflake sequence is strictly increasing within a process.
type ExecutionIDs struct {
	node *snowflake.Node
	now  func() time.Time
}

// NewExecutionIDs creates a generator for the given snowflake node (0-1023).
func NewExecutionIDs(node int64) (*ExecutionIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}
	return &ExecutionIDs{node: n, now: time.Now}, nil
}

// Next returns a new execution id for the plugin.
func (g *ExecutionIDs) Next(id domain.PluginID) string {
	return fmt.Sprintf("%s:%d:%d", id, g.now().UnixMilli(), g.node.Generate().Int64())
}

var defaultIDs = func() *ExecutionIDs {
	ids, err := NewExecutionIDs(1)
	if err != nil {
		panic(err)
	}
	return ids
}()
