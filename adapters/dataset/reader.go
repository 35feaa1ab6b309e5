package dataset

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adscope/domain/dataset"
)

// Reader loads ad performance rows from CSV or XLSX files.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader, inferring the format from the extension.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if strings.ToLower(filepath.Ext(filePath)) == ".xlsx" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Read loads all rows, sorted by date ascending.
func (r *Reader) Read() ([]dataset.Record, error) {
	log.Printf("[DataReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("dataset not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readXLSX()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", r.filePath)
	}

	records, err := parseRecords(rows[0], rows[1:])
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	log.Printf("[DataReader] Loaded %d records", len(records))
	return records, nil
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func (r *Reader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// parseRecords maps header names to columns so column order does not
// matter.
func parseRecords(header []string, rows [][]string) ([]dataset.Record, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	required := []string{"date", "campaign_name", "spend", "impressions", "clicks", "revenue", "ctr", "roas"}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", col)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]dataset.Record, 0, len(rows))
	for n, row := range rows {
		if len(row) == 0 {
			continue
		}

		date, err := parseDate(cell(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		rec := dataset.Record{
			Date:            date,
			CampaignName:    cell(row, "campaign_name"),
			AdsetName:       cell(row, "adset_name"),
			CreativeType:    cell(row, "creative_type"),
			CreativeMessage: cell(row, "creative_message"),
			AudienceType:    cell(row, "audience_type"),
			Country:         cell(row, "country"),
		}
		rec.Spend = parseFloat(cell(row, "spend"))
		rec.Impressions = parseInt(cell(row, "impressions"))
		rec.Clicks = parseInt(cell(row, "clicks"))
		rec.Purchases = parseInt(cell(row, "purchases"))
		rec.Revenue = parseFloat(cell(row, "revenue"))
		rec.CTR = parseFloat(cell(row, "ctr"))
		rec.ROAS = parseFloat(cell(row, "roas"))

		records = append(records, rec)
	}
	return records, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	// XLSX cells sometimes render integers as floats
	return int64(parseFloat(s))
}
