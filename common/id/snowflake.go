package id

import (
	"hash/fnv"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init sets the Snowflake node for this process. Replicas must run with
// distinct node IDs; see ResolveNode.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// ResolveNode returns configured when it is set (not negative), otherwise a
// node derived from the hostname, so replicas in different pods or hosts
// pick different nodes without configuration.
func ResolveNode(configured int64) int64 {
	if configured >= 0 {
		return configured
	}
	hostname, err := os.Hostname()
	if err != nil {
		return 0
	}
	return NodeFromHostname(hostname)
}

// NodeFromHostname hashes a hostname onto the snowflake node range.
func NodeFromHostname(hostname string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return int64(h.Sum32() % (uint32(1) << snowflake.NodeBits))
}

// New generates a new time-ordered int64 ID. If Init was never called, node 0
// is used.
func New() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(0)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}

// Format renders an ID the way it is shown to users and carried in button values.
func Format(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Parse is the inverse of Format.
func Parse(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
