package sync_test

import (
	gosync "sync"
	"testing"

	"github.com/hbomb79/Sectrans/pkg/sync"
	"github.com/stretchr/testify/assert"
)

func Test_TypedSyncMap_LoadOrStore(t *testing.T) {
	var m sync.TypedSyncMap[string, float64]

	v, loaded := m.LoadOrStore("a", 1.5)
	assert.False(t, loaded)
	assert.Equal(t, 1.5, v)

	v, loaded = m.LoadOrStore("a", 9)
	assert.True(t, loaded, "second store for the same key should load the first value")
	assert.Equal(t, 1.5, v)

	_, ok := m.Load("missing")
	assert.False(t, ok)
}

func Test_TypedSyncMap_ConcurrentWriters(t *testing.T) {
	var m sync.TypedSyncMap[int, int]

	wg := gosync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Store(i%10, i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, m.Len())

	seen := 0
	m.Range(func(k, v int) bool {
		assert.Equal(t, k, v%10)
		seen++
		return true
	})
	assert.Equal(t, 10, seen)

	m.Delete(0)
	assert.Equal(t, 9, m.Len())
}
