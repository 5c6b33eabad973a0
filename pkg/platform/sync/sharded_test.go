package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutex_SameKeySerializes(t *testing.T) {
	m := NewShardedMutex()
	counter := 0
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			m.Do("participant-1", func() { counter++ })
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestShardedMutex_LockUnlockEmptyKey(t *testing.T) {
	m := NewShardedMutex()
	m.Lock("")
	m.Unlock("")
	assert.Equal(t, 0, shardFor(""))
}

func TestShardFor_Stable(t *testing.T) {
	for _, key := range []string{"did:web:issuer", "participant-1", "tenant"} {
		s := shardFor(key)
		assert.Equal(t, s, shardFor(key))
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, shardCount)
	}
}
