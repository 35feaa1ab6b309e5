// Package adgen generates deterministic synthetic Facebook-ads performance
// data with planted signals (audience fatigue decay, a chronic low-CTR
// campaign) so the analysis pipeline has something real to find.
package adgen

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"adscope/domain/dataset"
)

// adset is one campaign/adset/creative slice of the synthetic account.
type adset struct {
	Campaign     string
	Adset        string
	CreativeType string
	Message      string
	Audience     string
	Country      string
	BaseCTR      float64
	BaseROAS     float64
	FatigueRate  float64 // daily multiplicative CTR/ROAS decay
}

var fleet = []adset{
	{"Comfort_Core", "CC_Lookalike_1pct", "VID", "No ride-up guarantee, all-day comfort", "Lookalike", "US", 0.022, 3.4, 0.004},
	{"Comfort_Core", "CC_Interest_Fitness", "IMG", "Breathable comfort for your active lifestyle", "Interest", "US", 0.018, 2.8, 0.003},
	{"Summer_Launch", "SL_Broad_AllAdults", "IMG", "New season, new comfort", "Broad", "US", 0.009, 1.6, 0.001},
	{"Summer_Launch", "SL_Lookalike_2pct", "UGC", "Real people, real comfort reviews", "Lookalike", "CA", 0.025, 3.9, 0.006},
	{"Retarget_Warm", "RW_SiteVisitors_30d", "VID", "Still thinking it over? Free returns", "Retargeting", "US", 0.031, 4.5, 0.005},
	{"Value_Evergreen", "VE_Broad_AllAdults", "IMG", "Premium comfort briefs", "Broad", "UK", 0.011, 1.9, 0.0015},
}

// Config controls generation.
type Config struct {
	Days      int
	Seed      int64
	StartDate time.Time
}

// DefaultConfig mirrors the canonical synthetic account: 90 days from a
// fixed start date, fixed seed.
func DefaultConfig() Config {
	return Config{
		Days:      90,
		Seed:      42,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate produces one record per adset per day.
func Generate(cfg Config) ([]dataset.Record, error) {
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	records := make([]dataset.Record, 0, cfg.Days*len(fleet))

	for day := 0; day < cfg.Days; day++ {
		date := cfg.StartDate.AddDate(0, 0, day)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		for _, a := range fleet {
			spend := 80 + rng.Float64()*240
			if weekend {
				spend *= 1.3
			}

			// Audience fatigue: CTR and ROAS decay with cumulative exposure.
			decay := math.Exp(-a.FatigueRate * float64(day))
			ctr := a.BaseCTR*decay + rng.NormFloat64()*0.0012
			if ctr < 0.001 {
				ctr = 0.001
			}
			roas := a.BaseROAS*decay + rng.NormFloat64()*0.25
			if roas < 0.1 {
				roas = 0.1
			}

			cpm := 8 + rng.Float64()*6
			impressions := int64(spend / cpm * 1000)
			clicks := int64(float64(impressions) * ctr)
			revenue := spend * roas
			purchases := int64(revenue / (45 + rng.Float64()*20))

			records = append(records, dataset.Record{
				Date:            date,
				CampaignName:    a.Campaign,
				AdsetName:       a.Adset,
				CreativeType:    a.CreativeType,
				CreativeMessage: a.Message,
				AudienceType:    a.Audience,
				Country:         a.Country,
				Spend:           round2(spend),
				Impressions:     impressions,
				Clicks:          clicks,
				Purchases:       purchases,
				Revenue:         round2(revenue),
				CTR:             round4(ctr),
				ROAS:            round2(roas),
			})
		}
	}

	return records, nil
}

var headers = []string{
	"date", "campaign_name", "adset_name", "creative_type", "creative_message",
	"audience_type", "country", "spend", "impressions", "clicks", "purchases",
	"revenue", "ctr", "roas",
}

func recordRow(r dataset.Record) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.CampaignName,
		r.AdsetName,
		r.CreativeType,
		r.CreativeMessage,
		r.AudienceType,
		r.Country,
		fmt.Sprintf("%.2f", r.Spend),
		fmt.Sprintf("%d", r.Impressions),
		fmt.Sprintf("%d", r.Clicks),
		fmt.Sprintf("%d", r.Purchases),
		fmt.Sprintf("%.2f", r.Revenue),
		fmt.Sprintf("%.4f", r.CTR),
		fmt.Sprintf("%.2f", r.ROAS),
	}
}

// WriteCSV writes the records as a CSV dataset.
func WriteCSV(path string, records []dataset.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(headers); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteXLSX writes the records as a single-sheet workbook.
func WriteXLSX(path string, records []dataset.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, r := range records {
		for col, v := range recordRow(r) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
