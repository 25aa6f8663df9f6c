// Package collection provides the ordered, owner-tracking container used for
// every typed item list of the manifest model, plus the uniqueness
// constraints that can be attached to it.
package collection

import (
	"iter"
	"slices"
)

// Hooks run when an item enters or leaves a collection. OnInsert is where the
// owning model sets back-references; OnRemove clears them.
type Hooks[T any] struct {
	OnInsert func(item T)
	OnRemove func(item T)
}

type checker[T any] interface {
	inserted(item T)
	removed(item T)
}

// Collection keeps items in insertion order. Every mutation is routed
// through the attached constraints and hooks.
type Collection[T comparable] struct {
	items    []T
	hooks    Hooks[T]
	checkers []checker[T]
}

func New[T comparable](hooks Hooks[T]) *Collection[T] {
	return &Collection[T]{hooks: hooks}
}

func (c *Collection[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func (c *Collection[T]) At(i int) T {
	return c.items[i]
}

// Items returns a copy of the current items.
func (c *Collection[T]) Items() []T {
	if c == nil {
		return nil
	}
	return slices.Clone(c.items)
}

// All iterates over a snapshot, so callers may mutate the collection while ranging.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	items := c.Items()
	return func(yield func(int, T) bool) {
		for i, item := range items {
			if !yield(i, item) {
				return
			}
		}
	}
}

func (c *Collection[T]) Values() iter.Seq[T] {
	items := c.Items()
	return func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

func (c *Collection[T]) IndexOf(item T) int {
	if c == nil {
		return -1
	}
	return slices.Index(c.items, item)
}

func (c *Collection[T]) Contains(item T) bool {
	return c.IndexOf(item) >= 0
}

// Find returns the first item matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	return zero, false
}

func (c *Collection[T]) Add(item T) {
	c.Insert(len(c.items), item)
}

func (c *Collection[T]) AddAll(items ...T) {
	for _, item := range items {
		c.Add(item)
	}
}

func (c *Collection[T]) Insert(index int, item T) {
	if c.hooks.OnInsert != nil {
		c.hooks.OnInsert(item)
	}
	for _, ch := range c.checkers {
		ch.inserted(item)
	}
	c.items = slices.Insert(c.items, index, item)
}

// Set replaces the item at index. The replaced item is detached first, so a
// constraint never compares the new item against the one it replaces.
func (c *Collection[T]) Set(index int, item T) {
	old := c.items[index]
	c.detach(old)
	if c.hooks.OnInsert != nil {
		c.hooks.OnInsert(item)
	}
	for _, ch := range c.checkers {
		ch.inserted(item)
	}
	c.items[index] = item
}

func (c *Collection[T]) Remove(item T) bool {
	i := c.IndexOf(item)
	if i < 0 {
		return false
	}
	c.RemoveAt(i)
	return true
}

func (c *Collection[T]) RemoveAt(index int) {
	item := c.items[index]
	c.items = slices.Delete(c.items, index, index+1)
	c.detach(item)
}

func (c *Collection[T]) Clear() {
	items := c.items
	c.items = nil
	for _, item := range items {
		c.detach(item)
	}
}

func (c *Collection[T]) detach(item T) {
	for _, ch := range c.checkers {
		ch.removed(item)
	}
	if c.hooks.OnRemove != nil {
		c.hooks.OnRemove(item)
	}
}
