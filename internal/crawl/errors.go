package crawl

import "fmt"

// FatalError marks a page fetch that cannot be retried: either the status
// is permanent (4xx other than 429) or the bounded retry budget ran out.
// The driver persists its checkpoint before surfacing one of these.
type FatalError struct {
	URL string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal fetch of %s: %v", e.URL, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ItemError is a failure isolated to one item's fetch/transform/store. The
// driver logs it, leaves the item unmarked, and continues with its siblings.
type ItemError struct {
	ID  int64
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
