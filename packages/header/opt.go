package header

// Opt is a value that remembers whether it was set.
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an unset Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value was set.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns o when set, otherwise fallback.
func (o Opt[T]) Or(fallback Opt[T]) Opt[T] {
	if o.set {
		return o
	}
	return fallback
}

// ValueOr returns the value when set, otherwise def.
func (o Opt[T]) ValueOr(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// orText is Or for strings: an explicit empty string does not win.
func orText(o, fallback Opt[string]) Opt[string] {
	if v, ok := o.Get(); ok && v != "" {
		return o
	}
	return fallback
}
