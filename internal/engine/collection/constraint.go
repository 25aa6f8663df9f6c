package collection

import (
	"evmc/internal/diag"
)

// Reporter is the diagnostic sink a constraint reports violations to.
type Reporter = diag.Reporter

// Constraint describes one uniqueness key of a collection.
//
// Message is a format string; Args builds its arguments from the newly added
// item and the existing item that already holds the key. Skip filters out
// items whose key is absent (e.g. an optional symbol).
type Constraint[T any, K comparable] struct {
	Key      func(item T) K
	Skip     func(item T) bool
	Message  string
	Args     func(item, existing T) []any
	Location func(item T) diag.Location
	Sink     Reporter
}

type uniqueIndex[T comparable, K comparable] struct {
	spec    Constraint[T, K]
	buckets map[K][]T
}

// Unique attaches a uniqueness constraint to c. Items already present are
// indexed without reporting. A violation is reported with Error severity; the
// item is still inserted.
func Unique[T comparable, K comparable](c *Collection[T], spec Constraint[T, K]) {
	idx := &uniqueIndex[T, K]{spec: spec, buckets: make(map[K][]T)}
	for _, item := range c.items {
		if idx.skip(item) {
			continue
		}
		k := spec.Key(item)
		idx.buckets[k] = append(idx.buckets[k], item)
	}
	c.checkers = append(c.checkers, idx)
}

func (u *uniqueIndex[T, K]) skip(item T) bool {
	return u.spec.Skip != nil && u.spec.Skip(item)
}

func (u *uniqueIndex[T, K]) inserted(item T) {
	if u.skip(item) {
		return
	}
	k := u.spec.Key(item)
	bucket := u.buckets[k]
	for _, existing := range bucket {
		if existing != item {
			u.report(item, existing)
			break
		}
	}
	u.buckets[k] = append(bucket, item)
}

func (u *uniqueIndex[T, K]) removed(item T) {
	if u.skip(item) {
		return
	}
	if u.drop(u.spec.Key(item), item) {
		return
	}
	// The key changed while the item was indexed.
	for k := range u.buckets {
		if u.drop(k, item) {
			return
		}
	}
}

func (u *uniqueIndex[T, K]) drop(k K, item T) bool {
	bucket := u.buckets[k]
	for i, existing := range bucket {
		if existing != item {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(u.buckets, k)
		} else {
			u.buckets[k] = bucket
		}
		return true
	}
	return false
}

func (u *uniqueIndex[T, K]) report(item, existing T) {
	if u.spec.Sink == nil {
		return
	}
	var loc diag.Location
	if u.spec.Location != nil {
		loc = u.spec.Location(item)
	}
	var args []any
	if u.spec.Args != nil {
		args = u.spec.Args(item, existing)
	}
	u.spec.Sink.Report(diag.Error, loc, u.spec.Message, args...)
}
