// Package keyonlylocks keeps non-blocking locks as keys in a *sync.Map.
// A key is held while present. Nobody waits: a taken key is reported busy.
package keyonlylocks

import "sync"

// TryLock takes a single key. release is nil when the key is busy
func TryLock(lockStore *sync.Map, key string) (release func(), ok bool) {
	if _, loaded := lockStore.LoadOrStore(key, struct{}{}); loaded {
		return nil, false
	}
	return func() { lockStore.Delete(key) }, true
}
