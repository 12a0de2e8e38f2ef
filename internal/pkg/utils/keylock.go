package utils

import "sync"

// KeyLocker provides one exclusive lock per key.
// Unused keys are dropped, so the map size is bounded by the number of keys in use.
type KeyLocker struct {
	lock  sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLocker creates locker
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: map[string]*keyLock{}}
}

// Lock acquires the lock for the key and returns the release func
func (kl *KeyLocker) Lock(key string) func() {
	kl.lock.Lock()
	l, ok := kl.locks[key]
	if !ok {
		l = &keyLock{}
		kl.locks[key] = l
	}
	l.refs++
	kl.lock.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			kl.lock.Lock()
			l.refs--
			if l.refs == 0 {
				delete(kl.locks, key)
			}
			kl.lock.Unlock()
		})
	}
}

func (kl *KeyLocker) size() int {
	kl.lock.Lock()
	defer kl.lock.Unlock()
	return len(kl.locks)
}
