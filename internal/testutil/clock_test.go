package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2023, 6, 15, 9, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "clock does not move on its own")

	c.Advance(24 * time.Hour)
	assert.Equal(t, start.Add(24*time.Hour), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestFixedClock_Concurrent(t *testing.T) {
	c := NewFixedClock(time.Unix(0, 0).UTC())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Unix(50, 0).UTC(), c.Now())
}

func TestDay(t *testing.T) {
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), Day("2023-06-15"))
	assert.Panics(t, func() { Day("15/06/2023") })
}
