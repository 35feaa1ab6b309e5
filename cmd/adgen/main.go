package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adscope/internal/adgen"
)

func main() {
	out := flag.String("out", "data/synthetic_fb_ads.csv", "output file path")
	days := flag.Int("days", 90, "number of days to simulate")
	format := flag.String("format", "", "output format: csv or xlsx (default inferred from -out)")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "start date (YYYY-MM-DD)")
	flag.Parse()

	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "days must be > 0")
		os.Exit(2)
	}

	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		switch strings.ToLower(filepath.Ext(*out)) {
		case ".xlsx":
			fmtName = "xlsx"
		default:
			fmtName = "csv"
		}
	}

	cfg := adgen.DefaultConfig()
	cfg.Days = *days
	cfg.Seed = *seed
	cfg.StartDate = startDate

	records, err := adgen.Generate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating dataset:", err)
		os.Exit(1)
	}

	switch fmtName {
	case "csv":
		err = adgen.WriteCSV(*out, records)
	case "xlsx":
		err = adgen.WriteXLSX(*out, records)
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", fmtName, err)
		os.Exit(1)
	}

	fmt.Printf("Synthetic dataset written: %s (%d rows)\n", *out, len(records))
}
