package endpoint

// Grounded on spec.md §3 "Endpoint". Shaped like nabbar/golib's small immutable
// value types (e.g. size.Size): a tiny unexported struct behind an exported
// interface, constructed only through package-level functions.
