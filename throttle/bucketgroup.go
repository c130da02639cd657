package throttle

import (
	"sync"
	"time"
)

type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets *sync.Map // K -> *Bucket[K]
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket[K], bool) {
	bAny, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return bAny.(*Bucket[K]), true
}

// LoadOrSetBucket returns the existing bucket, or stores a fresh one with tokens.
// loaded reports whether the bucket already existed.
func (g *BucketGroup[K]) LoadOrSetBucket(id K, tokens int, now time.Time) (b *Bucket[K], loaded bool) {
	bAny, loaded := g.buckets.LoadOrStore(id, &Bucket[K]{
		tokens:      tokens,
		lastCheck:   now,
		parentGroup: g,
	})
	return bAny.(*Bucket[K]), loaded
}

func (g *BucketGroup[K]) Len() int {
	n := 0
	g.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
