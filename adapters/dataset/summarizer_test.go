package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adscope/domain/core"
	"adscope/domain/dataset"
	"adscope/internal/adgen"
)

func record(date string, campaign, adsetName string, ctr, roas, spend float64) dataset.Record {
	d, _ := time.Parse("2006-01-02", date)
	return dataset.Record{
		Date:         d,
		CampaignName: campaign,
		AdsetName:    adsetName,
		CreativeType: "IMG",
		AudienceType: "Broad",
		Country:      "US",
		Spend:        spend,
		Impressions:  10000,
		Clicks:       int64(10000 * ctr),
		Revenue:      spend * roas,
		CTR:          ctr,
		ROAS:         roas,
	}
}

func TestSummarizeComputesTotalsAndSegments(t *testing.T) {
	records := []dataset.Record{
		record("2025-01-01", "A", "a1", 0.020, 3.0, 100),
		record("2025-01-01", "B", "b1", 0.010, 1.5, 200),
		record("2025-01-02", "A", "a1", 0.018, 2.5, 100),
		record("2025-01-02", "B", "b1", 0.009, 1.2, 200),
	}

	s := Summarize(records, 0.012)

	assert.Equal(t, 4, s.RowCount)
	assert.Equal(t, []string{"A", "B"}, s.Campaigns)
	assert.InDelta(t, 600.0, s.Performance.TotalSpend, 1e-9)
	assert.InDelta(t, (0.020+0.010+0.018+0.009)/4, s.Performance.AvgCTR, 1e-9)
	assert.InDelta(t, 1.2, s.Performance.MinROAS, 1e-9)
	assert.InDelta(t, 3.0, s.Performance.MaxROAS, 1e-9)

	a := s.CampaignPerformance["A"]
	assert.Equal(t, 2, a.RecordCount)
	assert.InDelta(t, 0.019, a.AvgCTR, 1e-9)
	assert.InDelta(t, 200.0, a.TotalSpend, 1e-9)
}

func TestSummarizeFlagsLowPerformersOnce(t *testing.T) {
	records := []dataset.Record{
		record("2025-01-01", "B", "b1", 0.010, 1.5, 200),
		record("2025-01-02", "B", "b1", 0.009, 1.2, 200), // same adset, still one entry
		record("2025-01-01", "A", "a1", 0.020, 3.0, 100),
	}

	s := Summarize(records, 0.012)

	assert.Len(t, s.LowCTRCampaigns, 1)
	assert.Equal(t, "B", s.LowCTRCampaigns[0].CampaignName)
	assert.Equal(t, "b1", s.LowCTRCampaigns[0].AdsetName)
	assert.Equal(t, 0.012, s.LowCTRThreshold)
}

func TestSummarizeCapsLowPerformers(t *testing.T) {
	var records []dataset.Record
	for i := 0; i < 8; i++ {
		records = append(records, record("2025-01-01", "C", string(rune('a'+i)), 0.005, 1.0, 50))
	}

	s := Summarize(records, 0.012)
	assert.Len(t, s.LowCTRCampaigns, maxLowPerformers)
}

func TestSummarizeTimelineAndTrend(t *testing.T) {
	// Strictly declining daily ROAS must yield a negative slope.
	records := []dataset.Record{
		record("2025-01-01", "A", "a1", 0.02, 4.0, 100),
		record("2025-01-02", "A", "a1", 0.02, 3.0, 100),
		record("2025-01-03", "A", "a1", 0.02, 2.0, 100),
		record("2025-01-04", "A", "a1", 0.02, 1.0, 100),
	}

	s := Summarize(records, 0.012)

	assert.Len(t, s.Timeline, 4)
	assert.InDelta(t, 4.0, s.Timeline[0].ROAS, 1e-9)
	assert.Negative(t, s.ROASTrendSlope)
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := Summarize(nil, 0.012)
	assert.Equal(t, 0, s.RowCount)
	assert.Empty(t, s.LowCTRCampaigns)
}

func TestSummarizerReadsGeneratedCSV(t *testing.T) {
	cfg := adgen.DefaultConfig()
	cfg.Days = 30
	records, err := adgen.Generate(cfg)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ads.csv")
	assert.NoError(t, adgen.WriteCSV(path, records))

	s := NewSummarizer(path, false, 0, 0.012)
	summary, err := s.Summarize(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, len(records), summary.RowCount)
	assert.Contains(t, summary.Campaigns, "Summer_Launch")
	// The planted broad adsets start below the CTR threshold.
	assert.NotEmpty(t, summary.LowCTRCampaigns)
}

func TestSummarizerReadsGeneratedXLSX(t *testing.T) {
	cfg := adgen.DefaultConfig()
	cfg.Days = 10
	records, err := adgen.Generate(cfg)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ads.xlsx")
	assert.NoError(t, adgen.WriteXLSX(path, records))

	summary, err := NewSummarizer(path, false, 0, 0.012).Summarize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(records), summary.RowCount)
}

func TestSummarizerSampleMode(t *testing.T) {
	cfg := adgen.DefaultConfig()
	cfg.Days = 20
	records, err := adgen.Generate(cfg)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ads.csv")
	assert.NoError(t, adgen.WriteCSV(path, records))

	summary, err := NewSummarizer(path, true, 12, 0.012).Summarize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 12, summary.RowCount)
}

func TestSummarizerWrapsLoadFailure(t *testing.T) {
	_, err := NewSummarizer("/nonexistent/ads.csv", false, 0, 0.012).Summarize(context.Background())
	assert.Error(t, err)
	assert.True(t, core.IsDataLoadError(err))
}
