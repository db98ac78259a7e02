package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordScan("rsi_mean_reversion", 250, 100)
	r.RecordScan("rsi_mean_reversion", 10, 10)
	r.RecordSignals("rsi_mean_reversion", 42)
	r.RecordSkipped("rsi_mean_reversion", "price_out_of_band")
	r.RecordPersisted("skip", 40)
	r.RecordError(ErrorScan)
	r.RecordDuration(1.5)

	assert.Equal(t, 260.0, testutil.ToFloat64(r.matches.WithLabelValues("rsi_mean_reversion")))
	assert.Equal(t, 110.0, testutil.ToFloat64(r.returned.WithLabelValues("rsi_mean_reversion")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.signals.WithLabelValues("rsi_mean_reversion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues("rsi_mean_reversion", "price_out_of_band")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.persisted.WithLabelValues("skip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues(ErrorScan)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.RecordScan("k", 1, 1)
		r.RecordSignals("k", 1)
		r.RecordSkipped("k", "no_symbol")
		r.RecordPersisted("overwrite", 1)
		r.RecordError(ErrorPersist)
		r.RecordDuration(1)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
