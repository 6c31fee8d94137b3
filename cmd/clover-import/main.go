// clover-import runs a CSV export through the enrichment engine from the command
// line. It defaults to preview so operators can inspect the report before applying.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	auditrepo "github.com/Ramsey-B/clover/internal/repositories/audit"
	batchrepo "github.com/Ramsey-B/clover/internal/repositories/batch"
	contactrepo "github.com/Ramsey-B/clover/internal/repositories/contact"
	reviewrepo "github.com/Ramsey-B/clover/internal/repositories/reviewqueue"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/engine"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/sources"
)

func main() {
	source := flag.String("source", "", "source system name (paypal, ticket_tailor, google_contacts, legacy_crm, mailerlite)")
	file := flag.String("file", "", "path to the CSV export")
	execute := flag.Bool("execute", false, "apply changes instead of previewing")
	flag.Parse()

	if *source == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: clover-import -source <name> -file <export.csv> [-execute]")
		fmt.Fprintf(os.Stderr, "known sources: %v\n", sources.Names())
		os.Exit(2)
	}

	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	adapter, ok := sources.Get(*source)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown source %q (known: %v)\n", *source, sources.Names())
		os.Exit(2)
	}

	records, skipped, err := readRecords(*file, adapter)
	if err != nil {
		logger.WithError(err).Errorf("Failed to read %s", *file)
		os.Exit(1)
	}
	if skipped > 0 {
		logger.WithField("skipped", skipped).Warn("Skipped empty rows")
	}
	if len(records) == 0 {
		logger.Error("No usable records in file")
		os.Exit(1)
	}

	eng, closeDB, err := buildEngine(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer closeDB()

	mode := models.RunModePreview
	if *execute {
		mode = models.RunModeExecute
	}

	report, err := eng.Run(context.Background(), adapter.Name(), records, mode)
	if err != nil {
		logger.WithError(err).Error("Run failed")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.WithError(err).Error("Failed to encode report")
		os.Exit(1)
	}
	fmt.Println(string(out))

	if mode == models.RunModePreview {
		fmt.Fprintln(os.Stderr, "preview only; re-run with -execute to apply")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// readRecords streams the CSV through the source adapter. The first row is the
// header; every following row becomes a header->value map for the adapter.
func readRecords(path string, adapter sources.Adapter) ([]models.IncomingRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	var records []models.IncomingRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to read row: %w", err)
		}

		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			}
		}

		rec, err := adapter.Parse(m)
		if err != nil {
			if err == sources.ErrEmptyRow {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		records = append(records, *rec)
	}

	return records, skipped, nil
}

func buildEngine(cfg config.Config, logger ectologger.Logger) (*engine.Engine, func(), error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword,
		cfg.DatabaseName, cfg.DatabaseSSLMode)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, nil, err
	}

	dbInstance := database.NewDatabaseInstance(db, logger)
	txManager := database.NewTxManager(dbInstance, logger)

	eng := engine.NewEngine(
		logger,
		contactrepo.NewRepository(dbInstance, logger),
		auditrepo.NewRepository(dbInstance, logger),
		reviewrepo.NewRepository(dbInstance, logger),
		batchrepo.NewRepository(dbInstance, logger),
		txManager,
		processor.NoopEmitter(),
		engine.Config{
			AutoApplyThreshold: cfg.AutoApplyThreshold,
			PhoneAllDigits:     cfg.PhoneKeepAllDigits,
		},
	)

	return eng, func() { db.Close() }, nil
}
