package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUnloadRoundTrip(t *testing.T) {
	r := New()

	r.RecordLoad("cam0", "indi_simulator_ccd")
	assert.True(t, r.IsLoaded("cam0"))

	rec, ok := r.Get("cam0")
	require.True(t, ok)
	assert.Equal(t, "indi_simulator_ccd", rec.Driver)
	assert.False(t, rec.LoadedAt.IsZero())

	r.RecordUnload("cam0")
	assert.False(t, r.IsLoaded("cam0"))
	_, ok = r.Get("cam0")
	assert.False(t, ok)
}

func TestRecordLoadOverwrites(t *testing.T) {
	r := New()
	r.RecordLoad("cam0", "indi_simulator_ccd")
	r.RecordLoad("cam0", "indi_sbig_ccd")

	assert.Equal(t, 1, r.Len())
	rec, _ := r.Get("cam0")
	assert.Equal(t, "indi_sbig_ccd", rec.Driver)
}

func TestRecordUnloadUnknownIsNoop(t *testing.T) {
	r := New()
	r.RecordUnload("ghost")
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.IsLoaded("ghost"))
}

func TestRecordsSortedAndClear(t *testing.T) {
	r := New()
	r.RecordLoad("mount", "indi_ieq_telescope")
	r.RecordLoad("cam1", "indi_simulator_ccd")
	r.RecordLoad("cam0", "indi_simulator_ccd")

	recs := r.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"cam0", "cam1", "mount"}, []string{recs[0].Device, recs[1].Device, recs[2].Device})

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Records())
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("dev%d", i)
			r.RecordLoad(name, "driver")
			_ = r.IsLoaded(name)
			_ = r.Records()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
