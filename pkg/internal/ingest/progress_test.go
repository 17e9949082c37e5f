package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressMean(t *testing.T) {
	p := NewProgress(4, nil)

	assert.InDelta(t, 0, p.Percent(), 0.001)
	assert.InDelta(t, 25, p.Update(0, 100), 0.001)
	assert.InDelta(t, 37.5, p.Update(1, 50), 0.001)

	// 回退与越界
	assert.InDelta(t, 37.5, p.Update(1, 10), 0.001)
	assert.InDelta(t, 62.5, p.Update(2, 250), 0.001)
	assert.InDelta(t, 100, p.File(2), 0.001)
	assert.InDelta(t, 62.5, p.Update(3, -5), 0.001)
	assert.InDelta(t, 0, p.File(3), 0.001)

	assert.InDelta(t, 87.5, p.Bytes(3, 100, 100), 0.001)
	assert.InDelta(t, 87.5, p.Bytes(1, 10, 0), 0.001)
}

func TestProgressEmpty(t *testing.T) {
	assert.InDelta(t, 100, NewProgress(0, nil).Percent(), 0.001)
}

func TestProgressConcurrent(t *testing.T) {
	const files, steps = 8, 200

	var (
		mu   sync.Mutex
		seen = map[int][]float64{}
	)

	p := NewProgress(files, nil)

	var wg sync.WaitGroup

	for f := range files {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for s := 0; s <= steps; s++ {
				p.Update(f, float64(s)*100/steps)

				mu.Lock()
				seen[f] = append(seen[f], p.File(f))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.InDelta(t, 100, p.Percent(), 0.001)

	for f := range files {
		assert.IsNonDecreasing(t, seen[f])

		for _, v := range seen[f] {
			assert.True(t, v >= 0 && v <= 100)
		}
	}
}

func TestProgressCallbackNeverGoesBackwards(t *testing.T) {
	const files, steps = 8, 200

	var got []float64

	p := NewProgress(files, func(percent float64) { got = append(got, percent) })

	var wg sync.WaitGroup

	for f := range files {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for s := 0; s <= steps; s++ {
				p.Update(f, float64(s)*100/steps)
			}
		}()
	}

	wg.Wait()

	require.NotEmpty(t, got)
	assert.IsIncreasing(t, got)
	assert.InDelta(t, 100, got[len(got)-1], 0.001)
}
