package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const maxNodeID = 1<<10 - 1

//nolint:gochecknoglobals // snowflake.Epoch is package state in the upstream library
var epochOnce sync.Once

// Snowflake generates numeric IDs using the Snowflake algorithm.
type Snowflake struct {
	node *snowflake.Node
}

func generateRandomNodeID() (int64, error) {
	var nodeID int64
	err := binary.Read(rand.Reader, binary.BigEndian, &nodeID)
	if err != nil {
		return 0, err
	}

	return nodeID & maxNodeID, nil
}

// NewSnowflake constructs a Snowflake generator.
//
// A negative nodeID (or one above 1023) picks a random node so that replicas
// started without explicit configuration are unlikely to collide.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		random, err := generateRandomNodeID()
		if err != nil {
			return nil, err
		}
		nodeID = random
	}

	epochOnce.Do(func() {
		snowflake.Epoch = 1764522000000 // Mon Dec 01 2025 00:00:00.000 WIB
	})

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// GenerateString returns a new unique ID formatted in base 10.
func (s *Snowflake) GenerateString() string {
	return strconv.FormatInt(s.Generate(), 10)
}
