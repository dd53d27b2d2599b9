//go:build linux

package devnode

import "fmt"

// QuerySized runs the kernel "probe size, then fill" protocol for a
// variable-length response.
//
// query is called first with a nil buffer and must return the element
// count the kernel wants; it is then called again with a buffer of
// exactly that length for the kernel to fill. A count above limit is
// rejected before allocation.
//
// The count can legitimately change between the two calls if the device
// is reconfigured concurrently. The returned slice is always the length
// reported by the first call; no re-validation happens after the fill,
// so callers never read past the allocated buffer.
func QuerySized[T any](limit uint32, query func(buf []T) (uint32, error)) ([]T, error) {
	n, err := query(nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > limit {
		return nil, fmt.Errorf("reported element count %d exceeds limit %d", n, limit)
	}

	buf := make([]T, n)
	if _, err := query(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
