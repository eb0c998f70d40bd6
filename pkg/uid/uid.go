package uid

import (
	"fmt"
	"time"

	"github.com/sony/sonyflake"
)

// UID generates unique, roughly time-ordered numeric identifiers.
type UID interface {
	NextID() (uint64, error)
}

type Sonyflake struct {
	gen *sonyflake.Sonyflake
}

var _ UID = (*Sonyflake)(nil)

func NewSonyflake() (*Sonyflake, error) {
	gen := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2021, 6, 28, 0, 0, 0, 0, time.UTC),
	})

	if gen == nil {
		return nil, fmt.Errorf("cannot create sonyflake generator")
	}

	return &Sonyflake{gen: gen}, nil
}

func (s *Sonyflake) NextID() (uint64, error) {
	return s.gen.NextID()
}
