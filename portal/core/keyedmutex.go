package core

import (
	"sync"

	"github.com/moby/locker"
)

// keyedMutex serialises work per key, e.g. per employee. The zero value is ready to use.
type keyedMutex struct {
	once   sync.Once
	locker *locker.Locker
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.once.Do(func() { k.locker = locker.New() })
	k.locker.Lock(key)
	return func() {
		_ = k.locker.Unlock(key)
	}
}
