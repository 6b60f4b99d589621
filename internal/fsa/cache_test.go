package fsa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCache_Expires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := newCache(5*time.Minute, 10)
	c.now = clock.now

	c.set("1234", Details{FsaID: "1234"})
	clock.advance(4 * time.Minute)
	d, ok := c.get("1234")
	assert.True(t, ok)
	assert.Equal(t, "1234", d.FsaID)

	clock.advance(2 * time.Minute)
	_, ok = c.get("1234")
	assert.False(t, ok)
}

func TestCache_EvictsOldest(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := newCache(time.Hour, 2)
	c.now = clock.now

	for _, k := range []string{"1", "2", "3"} {
		c.set(k, Details{FsaID: k})
		clock.advance(time.Second)
	}

	_, ok := c.get("1")
	assert.False(t, ok)
	_, ok = c.get("2")
	assert.True(t, ok)
	_, ok = c.get("3")
	assert.True(t, ok)
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *cache
	c.set("1", Details{})
	_, ok := c.get("1")
	assert.False(t, ok)
	c.clear()
}
