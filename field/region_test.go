package field

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/fixedpoint"
)

func testField(source ModuleID, v fixedpoint.Q16, ts uint64) Field {
	f := Field{Source: source, TimestampUS: ts, Sequence: 1}
	for i := range f.Components {
		f.Components[i] = v
	}
	return f
}

func TestPublishAndSample(t *testing.T) {
	r := NewRegion()
	f := testField(3, fixedpoint.FromFloat(0.5), 1000)
	r.Publish(f)

	got, ok := r.Sample(3)
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestSampleUnpublishedSlot(t *testing.T) {
	r := NewRegion()
	_, ok := r.Sample(9)
	require.False(t, ok)
}

func TestRetryingSampleNotFound(t *testing.T) {
	r := NewRegion()
	_, err := r.RetryingSample(5)
	require.Error(t, err)
	require.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestRetryingSampleSucceedsAfterPublish(t *testing.T) {
	r := NewRegion()
	f := testField(1, fixedpoint.One, 1)
	r.Publish(f)
	got, err := r.RetryingSample(1)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestGCReclaimsStaleSlots(t *testing.T) {
	r := NewRegion()
	r.Publish(testField(2, fixedpoint.One, 1000))
	r.GC(1000+500, 100)

	_, ok := r.Sample(2)
	require.False(t, ok)
}

func TestGCKeepsFreshSlots(t *testing.T) {
	r := NewRegion()
	r.Publish(testField(2, fixedpoint.One, 1000))
	r.GC(1000+50, 100)

	_, ok := r.Sample(2)
	require.True(t, ok)
}

func TestRepublishOverwrites(t *testing.T) {
	r := NewRegion()
	r.Publish(testField(4, fixedpoint.FromFloat(1), 10))
	r.Publish(testField(4, fixedpoint.FromFloat(2), 20))

	got, ok := r.Sample(4)
	require.True(t, ok)
	require.Equal(t, uint64(20), got.TimestampUS)
	require.Equal(t, fixedpoint.FromFloat(2), got.Components[0])
}
