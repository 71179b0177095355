package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsStageAverages(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var out bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
	)

	for range 4 {
		end := p.Begin(StageCompact)
		clock.advance(2 * time.Millisecond)
		end()
		clock.advance(248 * time.Millisecond)
		if clock.t.Before(time.Unix(1, 0)) {
			assert.False(t, p.Tick())
		}
	}
	assert.Equal(t, 8*time.Millisecond, p.StageTotal(StageCompact))

	assert.True(t, p.Tick())
	assert.Contains(t, out.String(), "[Profiler]")
	assert.Contains(t, out.String(), "compact=2ms")
	assert.Contains(t, out.String(), "classify=0s")
	assert.Zero(t, p.StageTotal(StageCompact))
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "classify", StageClassify.String())
	assert.Equal(t, "composite", StageComposite.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
