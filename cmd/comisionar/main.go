// Command comisionar runs the whole commission pipeline in one shot: rule
// workbook in, transaction export in, payout cover-sheet PDF out. It exists
// for month-end batch runs where the HTTP server is overkill.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/config"
	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/reports"
	"github.com/Grupo-LOROs/ComisionadorERA/src/services"
	"github.com/Grupo-LOROs/ComisionadorERA/src/utils"
	"github.com/schollz/progressbar/v3"
)

const flagDateFormat = "2006-01-02"

func main() {
	var (
		schemaPath  = flag.String("schema", "", "path to the rule workbook (.xlsm/.xlsx)")
		basePath    = flag.String("base", "", "path to the transaction export workbook")
		outPath     = flag.String("out", "caratula_comisiones.pdf", "output path for the cover-sheet PDF")
		startStr    = flag.String("start", "", "period start date (YYYY-MM-DD)")
		endStr      = flag.String("end", "", "period end date (YYYY-MM-DD)")
		pagoStr     = flag.String("pago", "", "payment date printed on the cover sheet (YYYY-MM-DD, default: end date)")
		filterDates = flag.Bool("filter-dates", true, "restrict rows to the start/end window")
		compareNet  = flag.Bool("compare-net", true, "compare net unit price (with tax) against list prices")
		includeType = flag.Bool("include-type", false, "add the advisor type column to the cover sheet")
	)
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	if *schemaPath == "" {
		*schemaPath = config.Cfg.SchemaPath
	}
	if *schemaPath == "" || *basePath == "" {
		fmt.Fprintln(os.Stderr, "usage: comisionar -schema <rules.xlsm> -base <export.xlsx> -start YYYY-MM-DD -end YYYY-MM-DD [-out file.pdf]")
		os.Exit(2)
	}

	start, err := time.Parse(flagDateFormat, *startStr)
	if err != nil {
		fatalf("invalid -start %q: %v", *startStr, err)
	}
	end, err := time.Parse(flagDateFormat, *endStr)
	if err != nil {
		fatalf("invalid -end %q: %v", *endStr, err)
	}
	pago := end
	if *pagoStr != "" {
		if pago, err = time.Parse(flagDateFormat, *pagoStr); err != nil {
			fatalf("invalid -pago %q: %v", *pagoStr, err)
		}
	}

	var bar *progressbar.ProgressBar
	svc := services.NewSessionService(nil, services.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}
		_ = bar.Set(done)
	}))

	ctx := context.Background()

	rules, err := svc.LoadSchema(ctx, *schemaPath)
	if err != nil {
		fatalf("loading rule workbook: %v", err)
	}
	fmt.Printf("Rule workbook: %d brackets, %d products, %d advisor types\n",
		len(rules.Brackets), len(rules.Prices), len(rules.AdvisorTypes))

	dataset, err := svc.LoadTransactions(ctx, *basePath)
	if err != nil {
		fatalf("loading transaction export: %v", err)
	}
	fmt.Printf("Transactions: %d rows kept, %d advisors, %d orders\n",
		dataset.Audit.RowsAfterFilters, dataset.Audit.DistinctAdvisors, dataset.Audit.DistinctOrders)

	session, err := svc.Process(ctx, services.ProcessRequest{
		FilterByDate: *filterDates,
		DateStart:    start,
		DateEnd:      end,
		CompareByNet: *compareNet,
		IncludeType:  *includeType,
	})
	if err != nil {
		fatalf("computing commissions: %v", err)
	}

	var totalSales, totalCommission float64
	for _, s := range session.Summary {
		totalSales += s.TotalSales
		totalCommission += s.TotalCommission
	}
	fmt.Printf("Computed %d rows across %d advisors\n", len(session.Result.Rows), len(session.Summary))
	fmt.Printf("Total sales: %s  Total commission: %s\n", utils.Money(totalSales), utils.Money(totalCommission))

	pdfBytes, err := svc.ExportSummary(ctx, reports.CoverSheetParams{
		DateStart:   start,
		DateEnd:     end,
		PaymentDate: pago,
		IncludeType: *includeType,
	})
	if err != nil {
		fatalf("rendering cover sheet: %v", err)
	}
	if err := os.WriteFile(*outPath, pdfBytes, 0o644); err != nil {
		fatalf("writing %s: %v", *outPath, err)
	}
	fmt.Printf("Cover sheet written to %s\n", *outPath)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
