package diag

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBad = errors.New("bad symbol")

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Warn("_TFoo", errBad)
	c.Error("main.foo", errBad)
	c.Warn("", errBad)
	c.Warn("ignored", nil)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.ErrorCount())
	assert.Equal(t, 2, c.WarningCount())

	errs := c.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "main.foo", errs[0].Subject)
	assert.Equal(t, "error: main.foo: bad symbol", errs[0].String())

	warns := c.Warnings()
	require.Len(t, warns, 2)
	assert.Equal(t, "warning: bad symbol", warns[1].String())
}

func TestCollectorErr(t *testing.T) {
	c := New()
	assert.NoError(t, c.Err())

	c.Warn("w", errBad)
	assert.NoError(t, c.Err(), "warnings alone should not produce an error")

	c.Error("main.foo", errBad)
	err := c.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)
	assert.Contains(t, err.Error(), "main.foo")

	c.Reset()
	assert.Zero(t, c.Len())
}

func TestCollectorNil(t *testing.T) {
	var c *Collector
	c.Warn("x", errBad)
	assert.Zero(t, c.Len())
	assert.Nil(t, c.Errors())
	assert.NoError(t, c.Err())
}

func TestCollectorConcurrent(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%2 == 0 {
					c.Warn(fmt.Sprintf("w%d", i), errBad)
				} else {
					c.Error(fmt.Sprintf("e%d", i), errBad)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len())
	assert.Equal(t, 400, c.ErrorCount())
	assert.Equal(t, 400, c.WarningCount())
}
