package domain

// ReasonAlwaysRun is the routing reason for unconditional plugins.
const ReasonAlwaysRun = "always-run"

// ReasonNoRelevantContent is the routing reason when no chunk was assigned.
const ReasonNoRelevantContent = "no relevant content"

// RoutingDecision records which chunks a plugin receives and why.
// Chunks are shared by value with every interested plugin; their text is never copied or altered.
type RoutingDecision struct {
	PluginID PluginID
	Chunks   []Chunk
	Reason   string
}

// Empty returns true if no chunk was assigned.
func (d RoutingDecision) Empty() bool {
	return len(d.Chunks) == 0
}
