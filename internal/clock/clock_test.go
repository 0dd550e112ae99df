package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	assert.Equal(t, start, m.Now())
	m.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), m.Now())
}

func TestSince(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := NowFunc
	defer func() { NowFunc = prev }()
	NowFunc = func() time.Time { return start.Add(time.Minute) }
	assert.Equal(t, time.Minute, Since(start))
}
