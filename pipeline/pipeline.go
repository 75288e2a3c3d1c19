/*
Package pipeline runs one complete report generation.

PURPOSE:
  One call from workbook paths to finished workbook: read the four source
  reports, prepare and join them into the base report, run the accruals
  engine, and write the formatted output. The HTTP API and the CLI both run
  builds through here so a run behaves identically either way.

FLOW:
  1. ReadWorkbook x4     (ingest, typed cells per Specs)
  2. PrepareAll + join   (ingest, canonical base report)
  3. PAToClaimFactors    (ingest -> accruals.FactorTable)
  4. BuildReport         (accruals engine)
  5. Write               (export, currency-formatted workbook)

SEE ALSO:
  - api/handlers.go: wraps Run with upload handling and run history
  - cmd/accruals: wraps Run for batch use
*/
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/mdf-accruals/accruals"
	"github.com/warp/mdf-accruals/config"
	"github.com/warp/mdf-accruals/export"
	"github.com/warp/mdf-accruals/ingest"
	"github.com/warp/mdf-accruals/table"
)

// Inputs maps each source report name (ingest.ReportNames) to its workbook
// path.
type Inputs map[string]string

// Result describes a finished run.
type Result struct {
	OutputPath string
	InputRows  int
	OutputRows int
	Elapsed    time.Duration
}

// Run executes one report generation end to end.
func Run(cfg config.Config, log zerolog.Logger, in Inputs) (*Result, error) {
	started := time.Now()

	raw := make(map[string]*table.Table, len(ingest.ReportNames))
	for _, name := range ingest.ReportNames {
		path, ok := in[name]
		if !ok {
			return nil, fmt.Errorf("missing input workbook for %q", name)
		}
		t, err := ingest.ReadWorkbook(path, ingest.Specs[name])
		if err != nil {
			return nil, err
		}
		log.Info().Str("report", name).Int("rows", t.Len()).Msg("read workbook")
		raw[name] = t
	}

	prepared, err := ingest.NewPreparer(raw, log).PrepareAll()
	if err != nil {
		return nil, err
	}

	ordered := make([]*table.Table, 0, len(ingest.ReportNames))
	for _, name := range ingest.ReportNames {
		ordered = append(ordered, prepared[name])
	}
	base, err := ingest.JoinPreparedReports(ordered, ingest.JoinKeys)
	if err != nil {
		return nil, err
	}

	factors, err := ingest.PAToClaimFactors(prepared[ingest.ReportActivitiesTable])
	if err != nil {
		return nil, err
	}

	engineCfg := accruals.DefaultConfig(cfg.AccrualYear)
	engineCfg.Logger = log
	report, accrualColumns, err := accruals.NewBuilder(engineCfg).BuildReport(base, factors)
	if err != nil {
		return nil, err
	}

	currency := append(append([]string{}, accruals.CurrencyColumns...), accrualColumns...)
	name := filepath.Join(cfg.Report.OutputDir, cfg.Report.OutputName)
	path, err := export.NewWriter(report, name).Write(cfg.Report.SheetName, currency)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	log.Info().
		Str("output", path).
		Int("input_rows", base.Len()).
		Int("output_rows", report.Len()).
		Dur("elapsed", elapsed).
		Msg("report generated")

	return &Result{
		OutputPath: path,
		InputRows:  base.Len(),
		OutputRows: report.Len(),
		Elapsed:    elapsed,
	}, nil
}
