// Package list implements an intrusive doubly-linked list: the link
// pointers live inside the owning record rather than in an allocated
// node, so pushing and popping never touches an allocator. This mirrors
// the layout biscuit's proc/vm packages assume for their ready and
// blocked queues, ported from embedded-pointer style to Go's
// unsafe.Offsetof idiom.
package list

import "unsafe"

// Elem is embedded by value in any record that wants list membership.
// A zero Elem can be inserted as a member directly; PushFront/PushBack
// and InsertBefore/InsertAfter set its links. A List's own sentinel is
// prepared by List.Init.
type Elem struct {
	next, prev *Elem

	// inList and sentinel are debug bits. inList catches the bug of
	// removing an element twice or pushing one that is already on a
	// list; sentinel protects the list head from being removed as if
	// it were a member.
	inList   bool
	sentinel bool
}

// InList reports whether e is currently linked into some list.
func (e *Elem) InList() bool {
	return e.inList
}

// List is a circular doubly-linked list with a sentinel head. An empty
// list's root points to itself.
type List struct {
	root Elem
}

// Init prepares an empty list. It must be called before any other List
// method.
func (l *List) Init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.root.sentinel = true
	l.root.inList = true
}

// Empty reports whether the list has no members.
func (l *List) Empty() bool {
	return l.root.next == &l.root
}

// First returns the first element, or nil if the list is empty.
func (l *List) First() *Elem {
	if l.Empty() {
		return nil
	}
	return l.root.next
}

// Last returns the last element, or nil if the list is empty.
func (l *List) Last() *Elem {
	if l.Empty() {
		return nil
	}
	return l.root.prev
}

// AtEnd reports whether e is the list's sentinel, i.e. iteration via
// e.Next()/e.Prev() should stop. Passing the result of First/Last/Next/Prev
// straight into a for loop condition is the intended usage:
//
//	for e := l.First(); l.AtEnd(e) == false; e = e.Next() { ... }
func (l *List) AtEnd(e *Elem) bool {
	return e == nil || e == &l.root
}

// Next returns the following element (the sentinel once iteration is done).
func (e *Elem) Next() *Elem { return e.next }

// Prev returns the preceding element (the sentinel once iteration is done).
func (e *Elem) Prev() *Elem { return e.prev }

// insertBetween links e between a and b, which must already be adjacent
// (a.next == b).
func insertBetween(e, a, b *Elem) {
	if e.inList {
		panic("list: element already in a list")
	}
	e.prev, e.next = a, b
	a.next, b.prev = e, e
	e.inList = true
}

// InsertAfter links e immediately after at.
func (l *List) InsertAfter(at, e *Elem) {
	insertBetween(e, at, at.next)
}

// InsertBefore links e immediately before at.
func (l *List) InsertBefore(at, e *Elem) {
	insertBetween(e, at.prev, at)
}

// PushFront links e as the new first element.
func (l *List) PushFront(e *Elem) {
	insertBetween(e, &l.root, l.root.next)
}

// PushBack links e as the new last element.
func (l *List) PushBack(e *Elem) {
	insertBetween(e, l.root.prev, &l.root)
}

// Remove unlinks e from whatever list it is on. It asserts e is actually
// linked and is not a sentinel, matching the debug checks the spec calls
// for on every list.
func (l *List) Remove(e *Elem) {
	if e.sentinel {
		panic("list: cannot remove sentinel")
	}
	if !e.inList {
		panic("list: element not in a list")
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next, e.prev = nil, nil
	e.inList = false
}

// PopFront unlinks and returns the first element, or nil if empty.
func (l *List) PopFront() *Elem {
	e := l.First()
	if e == nil {
		return nil
	}
	l.Remove(e)
	return e
}

// PopBack unlinks and returns the last element, or nil if empty.
func (l *List) PopBack() *Elem {
	e := l.Last()
	if e == nil {
		return nil
	}
	l.Remove(e)
	return e
}

// Data recovers the record embedding e at byte offset off (typically
// unsafe.Offsetof(Record{}.Field)) and of static type *T. The caller
// must guarantee e truly lives in that field of that type; this is the
// same obligation the spec places on container_of-style recovery, and
// there is no way for the list package itself to check it.
func Data[T any](e *Elem, off uintptr) *T {
	if e == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(uintptr(unsafe.Pointer(e)) - off))
}
