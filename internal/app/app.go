package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wa-extract/internal/enrich"
	"wa-extract/internal/infra/config"
	"wa-extract/internal/infra/logger"
	"wa-extract/internal/infra/metrics"
	"wa-extract/internal/runconfig"
	"wa-extract/internal/sink"
	"wa-extract/internal/source"
)

// maxLoggedSkips bounds how many skipped rows are listed individually.
const maxLoggedSkips = 20

// App runs one extraction.
type App struct {
	Config  *config.Config
	Log     waLog.Logger
	RunID   string
	Metrics *metrics.Run
}

// Summary reports what a run did.
type Summary struct {
	RunID    string
	Read     int
	Enriched int
	Dropped  int
	Skipped  int
	CSVPath  string
	Inserted int
}

// New creates a new App instance.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &App{
		Config:  cfg,
		Log:     logger.NewFormat(cfg.LogFormat, "wa-extract", cfg.LogLevel),
		RunID:   uuid.NewString(),
		Metrics: metrics.NewRun(),
	}, nil
}

// Run executes the stages in order: run metadata, source read, enrichment,
// CSV, relational table, metrics. Prompts read from in and write to out.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) (*Summary, error) {
	sum, err := a.run(ctx, in, out)
	a.Metrics.Finish(err == nil)

	if perr := a.Metrics.Push(ctx, a.Config.Metrics.PushgatewayURL, a.Config.Metrics.Job, a.RunID); perr != nil {
		a.Log.Warnf("%v", perr)
	}
	return sum, err
}

func (a *App) run(ctx context.Context, in io.Reader, out io.Writer) (*Summary, error) {
	cfg := a.Config
	a.Log.Infof("Starting extraction run %s", a.RunID)

	rc, err := runconfig.LoadOrPrompt(cfg.RunConfigPath, in, out)
	if err != nil {
		return nil, err
	}
	a.Log.Infof("Run metadata: cliente=%q estado=%q municipio=%q", rc.Client, rc.Region, rc.SubRegion)

	srcs, err := source.ReadSources(ctx, source.Paths{
		MsgStore:       cfg.MsgStorePath,
		Contacts:       cfg.ContactsDBPath,
		ChatIndexTable: cfg.ChatIndexTable,
	}, a.Log.Sub("source"))
	if err != nil {
		return nil, err
	}
	a.Metrics.MessagesRead.Add(float64(len(srcs.Messages)))

	res := enrich.Enrich(enrich.InputFrom(srcs), rc)
	a.Metrics.RecordsEnriched.Add(float64(len(res.Records)))
	a.Metrics.RowsDropped.Add(float64(res.Dropped))
	a.Metrics.RowsSkipped.Add(float64(len(res.Skipped)))
	a.logSkipped(res.Skipped)

	sum := &Summary{
		RunID:    a.RunID,
		Read:     len(srcs.Messages),
		Enriched: len(res.Records),
		Dropped:  res.Dropped,
		Skipped:  len(res.Skipped),
	}

	if err := sink.WriteCSV(cfg.OutputPath, res.Records); err != nil {
		return sum, err
	}
	sum.CSVPath = cfg.OutputPath
	a.Metrics.CSVRows.Add(float64(len(res.Records)))
	a.Log.Infof("Wrote %d records to %s", len(res.Records), cfg.OutputPath)

	if cfg.DryRun {
		a.Log.Infof("Dry run, skipping %s table %s", cfg.Sink.Driver, cfg.Sink.Table)
	} else {
		n, err := a.writeTable(ctx, res.Records)
		if err != nil {
			return sum, err
		}
		sum.Inserted = n
		a.Metrics.RowsInserted.Add(float64(n))
	}

	a.Log.Infof("Run %s done: read=%d enriched=%d dropped=%d skipped=%d inserted=%d",
		a.RunID, sum.Read, sum.Enriched, sum.Dropped, sum.Skipped, sum.Inserted)
	return sum, nil
}

func (a *App) writeTable(ctx context.Context, records []enrich.Record) (int, error) {
	s, err := sink.Open(ctx, a.Config.Sink, a.Log.Sub("sink"))
	if err != nil {
		return 0, err
	}
	defer s.Close()

	if err := s.EnsureTable(ctx); err != nil {
		return 0, err
	}
	n, err := s.BulkInsert(ctx, records)
	if err != nil {
		return 0, err
	}
	a.Log.Infof("Inserted %d records into %s", n, a.Config.Sink.Table)
	return n, nil
}

func (a *App) logSkipped(skipped []enrich.RowError) {
	if len(skipped) == 0 {
		return
	}
	a.Log.Warnf("Skipped %d messages that could not be converted", len(skipped))
	for i := range skipped {
		if i == maxLoggedSkips {
			a.Log.Warnf("... and %d more", len(skipped)-maxLoggedSkips)
			break
		}
		a.Log.Warnf("  %v", &skipped[i])
	}
}
