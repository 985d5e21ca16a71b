package service

import (
	"hash/fnv"
	"sync"
)

const lockShards = 32

// keyLocks is a sharded lock table: mutual exclusion per string key without a
// global mutex, so unrelated devices or sensor keys never serialize each
// other. Distinct keys may share a shard; that only costs contention, never
// correctness.
type keyLocks struct {
	shards [lockShards]sync.Mutex
}

func newKeyLocks() *keyLocks { return &keyLocks{} }

// lock acquires the shard owning key and returns the unlock func.
func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.shards[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}
