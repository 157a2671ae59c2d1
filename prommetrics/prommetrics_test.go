package prommetrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexigo"
)

type doc struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func TestCollector_WithDatabase(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := New(reg, "test")
	require.NoError(t, err)

	db, err := lexigo.Open[doc](lexigo.InMemory(), lexigo.WithMetricsCollector(mc))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	_, err = db.AddDocument(ctx, doc{ID: 1, Text: "hello world"})
	require.NoError(t, err)
	_, err = db.AddDocument(ctx, doc{ID: 1, Text: "again"})
	require.Error(t, err)

	res := db.AddDocuments(ctx, []doc{{ID: 2, Text: "x"}, {ID: 2, Text: "y"}})
	assert.Equal(t, 1, res.Failed())

	_, err = db.Search("hel").Execute(ctx)
	require.NoError(t, err)
	_, _, err = db.GetByExternalID(ctx, 1)
	require.NoError(t, err)
	_, _, err = db.GetByExternalID(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.OperationsTotal.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.OperationsTotal.WithLabelValues("add", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.BatchItemsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.BatchItemsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.OperationsTotal.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.LookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.LookupsTotal.WithLabelValues("miss")))

	n, err := testutil.GatherAndCount(reg, "test_lexigo_search_results_count")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "dup")
	require.NoError(t, err)

	_, err = New(reg, "dup")
	assert.Error(t, err)
}

func TestCollector_UpsertDelete(t *testing.T) {
	mc, err := New(prometheus.NewRegistry(), "")
	require.NoError(t, err)

	mc.RecordUpsert(0, nil)
	mc.RecordDelete(0, assert.AnError)
	mc.RecordGet(false, 0, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.OperationsTotal.WithLabelValues("upsert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.OperationsTotal.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.LookupsTotal.WithLabelValues("error")))
}
