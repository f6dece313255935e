package engine

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cadence/internal/testutil"
)

func TestSystemClock_Now(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	assert.False(t, got.Before(before))
}

func TestEngine_Today(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 02:30 UTC on the 16th is still the 15th in New York.
	clock := testutil.NewFixedClock(time.Date(2023, 6, 16, 2, 30, 0, 0, time.UTC))
	e := New(nil, nil, nil, WithClock(clock), WithLocation(ny))

	today := e.Today()
	assert.Equal(t, 15, today.Day())
	assert.Equal(t, ny, today.Location())
	assert.Equal(t, ny, e.Location())
}
