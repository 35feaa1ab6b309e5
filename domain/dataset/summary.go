package dataset

import (
	"time"
)

// Record is one daily row of ad performance for a campaign/adset/creative.
type Record struct {
	Date            time.Time `json:"date"`
	CampaignName    string    `json:"campaign_name"`
	AdsetName       string    `json:"adset_name"`
	CreativeType    string    `json:"creative_type"`
	CreativeMessage string    `json:"creative_message"`
	AudienceType    string    `json:"audience_type"`
	Country         string    `json:"country"`
	Spend           float64   `json:"spend"`
	Impressions     int64     `json:"impressions"`
	Clicks          int64     `json:"clicks"`
	Purchases       int64     `json:"purchases"`
	Revenue         float64   `json:"revenue"`
	CTR             float64   `json:"ctr"`
	ROAS            float64   `json:"roas"`
}

// DateRange bounds the loaded rows.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PerformanceTotals aggregates the whole dataset.
type PerformanceTotals struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalPurchases   int64   `json:"total_purchases"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgCTR           float64 `json:"avg_ctr"`
	AvgROAS          float64 `json:"avg_roas"`
	MinROAS          float64 `json:"min_roas"`
	MaxROAS          float64 `json:"max_roas"`
	MedianROAS       float64 `json:"median_roas"`
}

// SegmentStats aggregates one campaign or creative-type segment.
type SegmentStats struct {
	AvgCTR      float64 `json:"avg_ctr"`
	AvgROAS     float64 `json:"avg_roas"`
	TotalSpend  float64 `json:"total_spend"`
	RecordCount int     `json:"record_count"`
}

// DailyPoint is one day of the ROAS timeline.
type DailyPoint struct {
	Date    time.Time `json:"date"`
	Spend   float64   `json:"spend"`
	Revenue float64   `json:"revenue"`
	ROAS    float64   `json:"roas"`
	CTR     float64   `json:"ctr"`
}

// LowPerformer is a campaign/adset whose CTR fell below the configured
// low-performance threshold.
type LowPerformer struct {
	CampaignName    string  `json:"campaign_name"`
	AdsetName       string  `json:"adset_name"`
	CTR             float64 `json:"ctr"`
	CreativeMessage string  `json:"creative_message"`
}

// Summary is the structured dataset summary consumed once per run at the
// DataSummary stage. Opaque to the orchestration core beyond its shape.
type Summary struct {
	RowCount            int                     `json:"row_count"`
	DateRange           DateRange               `json:"date_range"`
	Campaigns           []string                `json:"campaigns"`
	Adsets              []string                `json:"adsets"`
	CreativeTypes       []string                `json:"creative_types"`
	AudienceTypes       []string                `json:"audience_types"`
	Countries           []string                `json:"countries"`
	Performance         PerformanceTotals       `json:"performance_metrics"`
	CampaignPerformance map[string]SegmentStats `json:"campaign_performance"`
	CreativePerformance map[string]SegmentStats `json:"creative_performance"`
	Timeline            []DailyPoint            `json:"roas_timeline"`
	ROASTrendSlope      float64                 `json:"roas_trend_slope"`
	LowCTRThreshold     float64                 `json:"low_ctr_threshold"`
	LowCTRCampaigns     []LowPerformer          `json:"low_ctr_campaigns"`
}
