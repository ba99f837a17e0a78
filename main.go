package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"zap-scraper/config"
	"zap-scraper/models"
	"zap-scraper/scraper/zap"
	"zap-scraper/services"
	"zap-scraper/storage"
	"zap-scraper/utils"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one scrape and returns the process exit code. Cancelling ctx
// stops the scrape; whatever was collected is still written.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if err := applyFlags(cfg, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	logger := utils.NewLogger(utils.LogOptions{
		Writer:  stdout,
		Verbose: cfg.Verbose,
		JSON:    cfg.LogFormat == "json",
	})

	logger.Info("=== Zap Imóveis scraper starting ===")
	logger.Info("Config: towns %s | %s | units %s | pages %d | delay %v-%v | concurrency %d",
		strings.Join(cfg.Towns, ", "), cfg.Transaction, unitList(cfg.UnitTypes), cfg.Pages,
		cfg.MinDelay, cfg.MaxDelay, cfg.Concurrency)
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is DISABLED (INSECURE_SKIP_VERIFY=true)")
	}

	result, scrapeErr := zap.New(cfg, logger).Scrape(ctx)
	interrupted := scrapeErr != nil
	if interrupted {
		logger.Warn("Scrape interrupted (%v), saving partial results", scrapeErr)
	}
	logFailures(logger, result.Failures)

	// Persist even when interrupted.
	saveCtx := context.WithoutCancel(ctx)

	csvWriter := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err := csvWriter.Write(saveCtx, result); err != nil {
		logger.Error("CSV write failed: %v", err)
		return exitFailure
	}
	logger.Info("%d records saved to %s", len(result.Records), csvWriter.Path())

	if cfg.PostgresDSN != "" {
		savePostgres(saveCtx, cfg.PostgresDSN, result, logger)
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(stdout, insightSvc.Generate(result))

	switch {
	case interrupted:
		return exitInterrupted
	case result.SucceededPages() == 0:
		logger.Error("No page could be scraped")
		return exitFailure
	}
	return exitOK
}

// applyFlags overrides cfg with the command-line flags that were actually set.
func applyFlags(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zap-scraper", flag.ContinueOnError)

	var (
		address, filtro, tipo, state, output string
		pages                                int
		verbose                              bool
	)
	fs.StringVar(&address, "address", "", "town to search, comma-separated for several (default \"Belo Horizonte\")")
	fs.StringVar(&address, "a", "", "shorthand for -address")
	fs.IntVar(&pages, "pages", 0, "number of result pages per town and unit type (default 1)")
	fs.IntVar(&pages, "p", 0, "shorthand for -pages")
	fs.StringVar(&filtro, "filtro", "", "transaction: alugar, comprar or lancamentos (default aluguel)")
	fs.StringVar(&filtro, "f", "", "shorthand for -filtro")
	fs.StringVar(&tipo, "tipo", "", "unit type: imoveis, casas, apartamentos, quitinetes; comma-separated for several (default imoveis)")
	fs.StringVar(&tipo, "t", "", "shorthand for -tipo")
	fs.BoolVar(&verbose, "verbose", false, "debug logging")
	fs.BoolVar(&verbose, "v", false, "shorthand for -verbose")
	fs.StringVar(&state, "state", "", "state abbreviation (default mg)")
	fs.StringVar(&output, "output", "", "CSV output path (default data.csv)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["address"] || set["a"] {
		cfg.Towns = splitList(address)
	}
	if set["pages"] || set["p"] {
		cfg.Pages = pages
	}
	if set["filtro"] || set["f"] {
		t, err := models.ParseTransactionType(filtro)
		if err != nil {
			return err
		}
		cfg.Transaction = t
	}
	if set["tipo"] || set["t"] {
		units, err := models.ParseUnitTypes(tipo)
		if err != nil {
			return err
		}
		cfg.UnitTypes = units
	}
	if set["verbose"] || set["v"] {
		cfg.Verbose = verbose
	}
	if set["state"] {
		cfg.State = state
	}
	if set["output"] {
		cfg.CSVOutputPath = output
	}
	return cfg.Validate()
}

func savePostgres(ctx context.Context, dsn string, result *models.RunResult, logger *utils.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	pg, err := storage.NewPostgresWriter(ctx, dsn, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return
	}
	defer pg.Close()

	if err := pg.Write(ctx, result); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	if n, err := pg.CountByRun(ctx, result.RunID); err == nil {
		logger.Info("%d listings stored in PostgreSQL (table: listings)", n)
	}
}

func logFailures(logger *utils.Logger, failures []models.PageFailure) {
	if len(failures) == 0 {
		return
	}
	logger.Warn("%d pages failed:", len(failures))
	for _, f := range failures {
		logger.Warn("  %s: %v", f.Criteria, f.Err)
	}
}

func unitList(units []models.UnitType) string {
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.String())
	}
	return strings.Join(names, ", ")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
