package fetch

import "context"

// Identified is implemented by every record the dashboards splice locally.
type Identified interface {
	GetID() int64
}

// Prepend places item first, dropping any older copy with the same id.
func Prepend[T Identified](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	for _, existing := range list {
		if existing.GetID() != item.GetID() {
			out = append(out, existing)
		}
	}
	return out
}

// RemoveByID drops the record with id, keeping order.
func RemoveByID[T Identified](list []T, id int64) []T {
	out := make([]T, 0, len(list))
	for _, existing := range list {
		if existing.GetID() != id {
			out = append(out, existing)
		}
	}
	return out
}

// ReplaceByID swaps the record sharing item's id in place.
func ReplaceByID[T Identified](list []T, item T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i := range out {
		if out[i].GetID() == item.GetID() {
			out[i] = item
		}
	}
	return out
}

// FindByID returns the record with id.
func FindByID[T Identified](list []T, id int64) (T, bool) {
	for _, existing := range list {
		if existing.GetID() == id {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

// Splice applies edit to the slot's list with item. An item without an id
// came from an empty response body, so the slot is re-fetched instead.
func Splice[E Identified](ctx context.Context, slot *Slot[[]E], item E, edit func([]E, E) []E) error {
	if item.GetID() == 0 {
		return slot.Refresh(ctx)
	}
	slot.Mutate(func(list []E) []E { return edit(list, item) })
	return nil
}

// Replace stores item as the slot's value, or re-fetches when item has no id.
func Replace[T Identified](ctx context.Context, slot *Slot[T], item T) error {
	if item.GetID() == 0 {
		return slot.Refresh(ctx)
	}
	slot.Mutate(func(T) T { return item })
	return nil
}
