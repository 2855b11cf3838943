package tipping

// Field is one optional replacement in a partial update.
type Field[T any] struct {
	set   bool
	value T
}

// Keep leaves the current value unchanged.
func Keep[T any]() Field[T] {
	return Field[T]{}
}

// Replace swaps in value wholesale.
func Replace[T any](value T) Field[T] {
	return Field[T]{set: true, value: value}
}

// IsSet reports whether the field replaces the current value.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Value returns the replacement and whether one is present.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.set
}

// Apply returns the replacement when present, otherwise current.
func (f Field[T]) Apply(current T) T {
	if f.set {
		return f.value
	}
	return current
}
