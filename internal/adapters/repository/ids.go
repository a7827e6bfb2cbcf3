package repository

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/relaxflow/core/internal/ports"
)

// ID strategies accepted by NewIDGenerator.
const (
	IDStrategyUUID       = "uuid"
	IDStrategySequential = "sequential"
)

// UUIDGenerator issues random identifiers independent of existing data.
type UUIDGenerator struct{}

func (UUIDGenerator) NextID(_ []string) string {
	return uuid.NewString()
}

// SequentialGenerator issues max(numeric id)+1, or "1" for an empty collection.
// Identifiers that are not integers do not take part in the max.
type SequentialGenerator struct{}

func (SequentialGenerator) NextID(existing []string) string {
	var max int64
	for _, id := range existing {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// NewIDGenerator returns the generator for the configured strategy.
func NewIDGenerator(strategy string) (ports.IDGenerator, error) {
	switch strategy {
	case "", IDStrategyUUID:
		return UUIDGenerator{}, nil
	case IDStrategySequential:
		return SequentialGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
