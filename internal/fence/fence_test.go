package fence_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsr-inc/jobtrack/internal/fence"
)

func TestFence(t *testing.T) {
	tests := map[string]struct {
		run func(t *testing.T, f *fence.Fence)
	}{
		"A minted token should be the latest until a new one is minted.": {
			run: func(t *testing.T, f *fence.Fence) {
				t1 := f.Start()
				assert.True(t, f.IsLatest(t1))

				t2 := f.Start()
				assert.False(t, f.IsLatest(t1))
				assert.True(t, f.IsLatest(t2))
			},
		},

		"Only the last of many minted tokens should be the latest.": {
			run: func(t *testing.T, f *fence.Fence) {
				tokens := make([]fence.Token, 10)
				for i := range tokens {
					tokens[i] = f.Start()
				}

				for _, tk := range tokens[:len(tokens)-1] {
					assert.False(t, f.IsLatest(tk))
				}
				assert.True(t, f.IsLatest(tokens[len(tokens)-1]))
			},
		},

		"Invalidate should discard all in-flight tokens.": {
			run: func(t *testing.T, f *fence.Fence) {
				tk := f.Start()
				f.Invalidate()
				assert.False(t, f.IsLatest(tk))
			},
		},

		"Tokens should be strictly increasing.": {
			run: func(t *testing.T, f *fence.Fence) {
				prev := f.Start()
				for i := 0; i < 100; i++ {
					next := f.Start()
					assert.Greater(t, next, prev)
					prev = next
				}
			},
		},

		"Checking a stale token should not affect the current one.": {
			run: func(t *testing.T, f *fence.Fence) {
				t1 := f.Start()
				t2 := f.Start()

				// IsLatest is pure, repeated checks don't change anything.
				for i := 0; i < 3; i++ {
					assert.False(t, f.IsLatest(t1))
					assert.True(t, f.IsLatest(t2))
				}
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			f := &fence.Fence{}
			test.run(t, f)
		})
	}
}

// TestFenceOutOfOrderResolution models the classic race: two requests start
// in order but resolve in reverse order. Only the result gated by the second
// token may be committed.
func TestFenceOutOfOrderResolution(t *testing.T) {
	assert := assert.New(t)

	f := &fence.Fence{}
	var committed []string

	commit := func(tk fence.Token, result string) {
		if f.IsLatest(tk) {
			committed = append(committed, result)
		}
	}

	t1 := f.Start()
	t2 := f.Start()

	// The operation for t1 resolves after the one for t2.
	commit(t2, "second")
	commit(t1, "first")

	assert.Equal([]string{"second"}, committed)
}

func TestFenceConcurrentStart(t *testing.T) {
	assert := assert.New(t)

	f := &fence.Fence{}

	const workers = 50
	tokens := make([]fence.Token, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = f.Start()
		}(i)
	}
	wg.Wait()

	// All tokens are unique and exactly one of them is the latest.
	seen := map[fence.Token]bool{}
	latest := 0
	for _, tk := range tokens {
		assert.False(seen[tk])
		seen[tk] = true
		if f.IsLatest(tk) {
			latest++
		}
	}
	assert.Equal(1, latest)
}
