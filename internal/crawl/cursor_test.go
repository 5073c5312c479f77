package crawl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_WalkAllPartitions(t *testing.T) {
	t.Parallel()

	c := NewCursor([]string{"A", "B"})
	require.False(t, c.Exhausted())
	require.Equal(t, "A", c.CurrentPartition())
	require.Equal(t, 0, c.CurrentPage())

	c.AdvancePage()
	c.AdvancePage()
	require.Equal(t, "A", c.CurrentPartition())
	require.Equal(t, 2, c.CurrentPage())

	c.AdvancePartition()
	require.Equal(t, "B", c.CurrentPartition())
	require.Equal(t, 0, c.CurrentPage(), "page resets when the partition advances")

	c.AdvancePartition()
	require.True(t, c.Exhausted())
	require.Equal(t, "", c.CurrentPartition())
}

func TestCursor_SeekResumesPosition(t *testing.T) {
	t.Parallel()

	c := NewCursor([]string{"A", "B", "C"})
	c.Seek("B", 2)
	require.Equal(t, "B", c.CurrentPartition())
	require.Equal(t, 2, c.CurrentPage())
}

func TestCursor_SeekUnknownPartitionStaysAtStart(t *testing.T) {
	t.Parallel()

	c := NewCursor([]string{"A", "B"})
	c.Seek("Z", 7)
	require.Equal(t, "A", c.CurrentPartition())
	require.Equal(t, 0, c.CurrentPage())
}

func TestCursor_AdvancePastEndIsStable(t *testing.T) {
	t.Parallel()

	c := NewCursor([]string{"A"})
	c.AdvancePartition()
	require.True(t, c.Exhausted())
	c.AdvancePage()
	c.AdvancePartition()
	require.True(t, c.Exhausted())
}
