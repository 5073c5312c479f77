package crawl

// Cursor tracks traversal position over a fixed, ordered partition list.
// The page index resets to zero whenever the partition advances, and the
// partition index never moves backwards. A Cursor is owned by exactly one
// driver and is not safe for concurrent use.
type Cursor struct {
	partitions []string
	partition  int
	page       int
}

// NewCursor builds a cursor positioned at the first partition, page zero.
func NewCursor(partitions []string) *Cursor {
	return &Cursor{partitions: append([]string(nil), partitions...)}
}

// Seek repositions the cursor for a resumed run. An unknown partition key
// leaves the cursor at the start; a negative page is treated as zero.
func (c *Cursor) Seek(partition string, page int) {
	for i, p := range c.partitions {
		if p == partition {
			c.partition = i
			if page > 0 {
				c.page = page
			} else {
				c.page = 0
			}
			return
		}
	}
}

// CurrentPartition returns the active partition key. It returns "" once the
// cursor is exhausted.
func (c *Cursor) CurrentPartition() string {
	if c.Exhausted() {
		return ""
	}
	return c.partitions[c.partition]
}

// CurrentPage returns the zero-based page index within the partition.
func (c *Cursor) CurrentPage() int {
	return c.page
}

// AdvancePage moves to the next page of the current partition.
func (c *Cursor) AdvancePage() {
	if c.Exhausted() {
		return
	}
	c.page++
}

// AdvancePartition moves to the next partition and resets the page to zero.
func (c *Cursor) AdvancePartition() {
	if c.Exhausted() {
		return
	}
	c.partition++
	c.page = 0
}

// Exhausted reports whether the cursor has moved past the last partition.
func (c *Cursor) Exhausted() bool {
	return c.partition >= len(c.partitions)
}
