package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/storage"
)

const testPool = "Czfq3xZZDmsdGdUyrNLtRhGc47cXcZtLG4crryfu44zE"

func testSampleSet(chart domain.TickRange) *storage.SampleSet {
	var samples []domain.TickSample
	for tick := chart.Min; tick <= chart.Max; tick += 64 {
		samples = append(samples, domain.TickSample{
			TickIndex:      tick,
			LiquidityNet:   decimal.NewFromInt(int64(tick)),
			LiquidityGross: decimal.NewFromInt(1),
		})
	}
	return &storage.SampleSet{Pool: testPool, Chart: chart, Samples: samples, FetchedAt: 1704067200000}
}

func TestSampleStore_PutAndGet(t *testing.T) {
	store := NewSampleStore()
	ctx := context.Background()
	chart := domain.TickRange{Min: -21120, Max: -17088}

	if err := store.Put(ctx, testSampleSet(chart)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Latest(ctx, testPool)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(got.Samples) != 64 {
		t.Errorf("expected 64 samples, got %d", len(got.Samples))
	}

	byChart, err := store.GetByChart(ctx, testPool, chart)
	if err != nil {
		t.Fatalf("GetByChart failed: %v", err)
	}
	if byChart.Chart != chart {
		t.Errorf("chart mismatch: got %+v, want %+v", byChart.Chart, chart)
	}
}

func TestSampleStore_GetByChartMismatch(t *testing.T) {
	store := NewSampleStore()
	ctx := context.Background()

	if err := store.Put(ctx, testSampleSet(domain.TickRange{Min: -21120, Max: -17088})); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, err := store.GetByChart(ctx, testPool, domain.TickRange{Min: -20480, Max: -16448})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for different chart, got %v", err)
	}
}

func TestSampleStore_NotFound(t *testing.T) {
	store := NewSampleStore()

	_, err := store.Latest(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSampleStore_InvalidInput(t *testing.T) {
	store := NewSampleStore()
	ctx := context.Background()

	tests := []struct {
		name string
		set  *storage.SampleSet
	}{
		{"nil", nil},
		{"empty pool", &storage.SampleSet{Chart: domain.TickRange{Min: 0, Max: 64}}},
		{"inverted chart", &storage.SampleSet{Pool: testPool, Chart: domain.TickRange{Min: 64, Max: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Put(ctx, tt.set); !errors.Is(err, storage.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSampleStore_CopyIsolation(t *testing.T) {
	store := NewSampleStore()
	ctx := context.Background()

	set := testSampleSet(domain.TickRange{Min: 0, Max: 128})
	if err := store.Put(ctx, set); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	set.Samples[0].TickIndex = 999

	got, _ := store.Latest(ctx, testPool)
	if got.Samples[0].TickIndex != 0 {
		t.Errorf("stored samples mutated through caller slice: %d", got.Samples[0].TickIndex)
	}

	got.Samples[1].TickIndex = 999
	again, _ := store.Latest(ctx, testPool)
	if again.Samples[1].TickIndex != 64 {
		t.Errorf("stored samples mutated through returned slice: %d", again.Samples[1].TickIndex)
	}
}
