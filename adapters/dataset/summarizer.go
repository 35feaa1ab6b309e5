package dataset

import (
	"context"
	"log"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"adscope/domain/core"
	"adscope/domain/dataset"
)

// low performers passed to the creative stage are capped; beyond a
// handful the recommendations stop being actionable
const maxLowPerformers = 5

// Summarizer implements the data-summary capability over a local dataset
// file.
type Summarizer struct {
	Path            string
	SampleMode      bool
	SampleSize      int
	LowCTRThreshold float64
}

// NewSummarizer creates a summarizer for one dataset file.
func NewSummarizer(path string, sampleMode bool, sampleSize int, lowCTRThreshold float64) *Summarizer {
	return &Summarizer{
		Path:            path,
		SampleMode:      sampleMode,
		SampleSize:      sampleSize,
		LowCTRThreshold: lowCTRThreshold,
	}
}

// Summarize loads the dataset and computes the descriptive summary
// consumed by the DataSummary stage. Failures are surfaced as
// core.ErrDataLoad: the pipeline cannot proceed without data.
func (s *Summarizer) Summarize(ctx context.Context) (*dataset.Summary, error) {
	records, err := NewReader(s.Path).Read()
	if err != nil {
		return nil, core.NewDataLoadError(err)
	}

	if s.SampleMode && s.SampleSize > 0 && len(records) > s.SampleSize {
		records = records[:s.SampleSize]
	}

	summary := Summarize(records, s.LowCTRThreshold)
	log.Printf("[Summarizer] %d records, %d campaigns, %d low-CTR performers",
		summary.RowCount, len(summary.Campaigns), len(summary.LowCTRCampaigns))
	return summary, nil
}

// Summarize computes descriptive statistics over already-loaded records.
func Summarize(records []dataset.Record, lowCTRThreshold float64) *dataset.Summary {
	summary := &dataset.Summary{
		RowCount:            len(records),
		CampaignPerformance: make(map[string]dataset.SegmentStats),
		CreativePerformance: make(map[string]dataset.SegmentStats),
		LowCTRThreshold:     lowCTRThreshold,
	}
	if len(records) == 0 {
		return summary
	}

	summary.DateRange = dataset.DateRange{
		Start: records[0].Date,
		End:   records[len(records)-1].Date,
	}

	ctrs := make([]float64, 0, len(records))
	roass := make([]float64, 0, len(records))
	for _, r := range records {
		summary.Performance.TotalSpend += r.Spend
		summary.Performance.TotalImpressions += r.Impressions
		summary.Performance.TotalClicks += r.Clicks
		summary.Performance.TotalPurchases += r.Purchases
		summary.Performance.TotalRevenue += r.Revenue
		ctrs = append(ctrs, r.CTR)
		roass = append(roass, r.ROAS)
	}

	summary.Performance.AvgCTR, _ = stats.Mean(ctrs)
	summary.Performance.AvgROAS, _ = stats.Mean(roass)
	summary.Performance.MinROAS, _ = stats.Min(roass)
	summary.Performance.MaxROAS, _ = stats.Max(roass)
	summary.Performance.MedianROAS, _ = stats.Median(roass)

	summary.Campaigns = distinct(records, func(r dataset.Record) string { return r.CampaignName })
	summary.Adsets = distinct(records, func(r dataset.Record) string { return r.AdsetName })
	summary.CreativeTypes = distinct(records, func(r dataset.Record) string { return r.CreativeType })
	summary.AudienceTypes = distinct(records, func(r dataset.Record) string { return r.AudienceType })
	summary.Countries = distinct(records, func(r dataset.Record) string { return r.Country })

	summary.CampaignPerformance = segmentStats(records, func(r dataset.Record) string { return r.CampaignName })
	summary.CreativePerformance = segmentStats(records, func(r dataset.Record) string { return r.CreativeType })

	summary.Timeline = roasTimeline(records)
	summary.ROASTrendSlope = trendSlope(summary.Timeline)
	summary.LowCTRCampaigns = lowPerformers(records, lowCTRThreshold)

	return summary
}

func distinct(records []dataset.Record, key func(dataset.Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func segmentStats(records []dataset.Record, key func(dataset.Record) string) map[string]dataset.SegmentStats {
	groups := make(map[string][]dataset.Record)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], r)
	}

	out := make(map[string]dataset.SegmentStats, len(groups))
	for k, group := range groups {
		ctrs := make([]float64, len(group))
		roass := make([]float64, len(group))
		var spend float64
		for i, r := range group {
			ctrs[i] = r.CTR
			roass[i] = r.ROAS
			spend += r.Spend
		}
		avgCTR, _ := stats.Mean(ctrs)
		avgROAS, _ := stats.Mean(roass)
		out[k] = dataset.SegmentStats{
			AvgCTR:      avgCTR,
			AvgROAS:     avgROAS,
			TotalSpend:  spend,
			RecordCount: len(group),
		}
	}
	return out
}

func roasTimeline(records []dataset.Record) []dataset.DailyPoint {
	type acc struct {
		spend, revenue      float64
		impressions, clicks int64
	}
	days := make(map[string]*acc)
	for _, r := range records {
		k := r.Date.Format("2006-01-02")
		a, ok := days[k]
		if !ok {
			a = &acc{}
			days[k] = a
		}
		a.spend += r.Spend
		a.revenue += r.Revenue
		a.impressions += r.Impressions
		a.clicks += r.Clicks
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	timeline := make([]dataset.DailyPoint, 0, len(keys))
	for _, k := range keys {
		a := days[k]
		date, _ := parseDate(k)
		p := dataset.DailyPoint{Date: date, Spend: a.spend, Revenue: a.revenue}
		if a.spend > 0 {
			p.ROAS = a.revenue / a.spend
		}
		if a.impressions > 0 {
			p.CTR = float64(a.clicks) / float64(a.impressions)
		}
		timeline = append(timeline, p)
	}
	return timeline
}

// trendSlope fits daily ROAS against day index; a negative slope is the
// quantitative signal behind "ROAS has declined".
func trendSlope(timeline []dataset.DailyPoint) float64 {
	if len(timeline) < 2 {
		return 0
	}
	xs := make([]float64, len(timeline))
	ys := make([]float64, len(timeline))
	for i, p := range timeline {
		xs[i] = float64(i)
		ys[i] = p.ROAS
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

func lowPerformers(records []dataset.Record, threshold float64) []dataset.LowPerformer {
	seen := make(map[string]bool)
	var out []dataset.LowPerformer
	for _, r := range records {
		if r.CTR >= threshold {
			continue
		}
		k := r.CampaignName + "|" + r.AdsetName
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, dataset.LowPerformer{
			CampaignName:    r.CampaignName,
			AdsetName:       r.AdsetName,
			CTR:             r.CTR,
			CreativeMessage: r.CreativeMessage,
		})
		if len(out) == maxLowPerformers {
			break
		}
	}
	return out
}
