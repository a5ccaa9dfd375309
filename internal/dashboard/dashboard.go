// Package dashboard builds the one-ticker stock report sheet inside a workbook.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"StockDashboard/internal/calculator"
	"StockDashboard/internal/chart"
	"StockDashboard/internal/collector"
	"StockDashboard/internal/config"
	"StockDashboard/internal/model"
	"StockDashboard/internal/notifier"
	"StockDashboard/internal/recorder"
	"StockDashboard/internal/workbook"
)

// HistoryDays is the trailing window every report covers.
const HistoryDays = 30

var (
	// ErrSetup means the input name is not defined in the workbook.
	ErrSetup = errors.New("setup required")
	// ErrMissingTicker means the input cell is empty.
	ErrMissingTicker = errors.New("missing ticker")
	// ErrInvalidTicker means the provider has no rows for the ticker.
	ErrInvalidTicker = errors.New("invalid ticker")
)

// IsAbort reports whether err is one of the user-facing aborts that already
// produced an alert, as opposed to an unexpected failure.
func IsAbort(err error) bool {
	return errors.Is(err, ErrSetup) || errors.Is(err, ErrMissingTicker) || errors.Is(err, ErrInvalidTicker)
}

// Options controls where the dashboard reads its input and places its output.
type Options struct {
	TickerName  string
	SheetName   string
	ChartAnchor string
	Chart       chart.Options
}

// OptionsFromConfig maps the loaded configuration onto dashboard options.
func OptionsFromConfig(cfg *config.Config) Options {
	co := chart.DefaultOptions
	co.Width = cfg.Chart.Width
	co.Height = cfg.Chart.Height
	return Options{
		TickerName:  cfg.Workbook.TickerName,
		SheetName:   cfg.Workbook.SheetName,
		ChartAnchor: cfg.Chart.Anchor,
		Chart:       co,
	}
}

// Result is what one successful build produced.
type Result struct {
	Ticker     string
	Series     *model.HistoricalSeries
	Info       model.IssuerInfo
	Metrics    model.DerivedMetrics
	ChangeText string
}

// Dashboard wires the data source, alerts and run history around one workbook.
type Dashboard struct {
	Fetcher  collector.Fetcher
	Alerter  notifier.Alerter
	Recorder recorder.Recorder
	Options  Options
	// Now is the clock used for the timestamp cell; nil means time.Now.
	Now func() time.Time
}

// New creates a Dashboard. A nil recorder disables run history.
func New(f collector.Fetcher, a notifier.Alerter, r recorder.Recorder, opts Options) *Dashboard {
	if r == nil {
		r = recorder.NewNoopRecorder()
	}
	return &Dashboard{Fetcher: f, Alerter: a, Recorder: r, Options: opts}
}

func (d *Dashboard) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Run opens the workbook at path, rebuilds the report sheet and saves it.
// Aborted and failed runs leave the file untouched.
func (d *Dashboard) Run(ctx context.Context, path string) (*Result, error) {
	rec := recorder.NewRunRecord("", d.now())
	rec.Source = d.Fetcher.Name()

	res, err := d.run(ctx, path)
	d.record(rec, res, err)
	if err != nil {
		if IsAbort(err) {
			log.Printf("[WARN] dashboard run aborted: %v", err)
		} else {
			log.Printf("[ERROR] dashboard run failed: %v", err)
		}
		return nil, err
	}

	d.alert(ctx, notifier.Success(res.Ticker, res.Metrics.LatestClose, res.ChangeText))
	log.Printf("[INFO] dashboard updated for %s (%d rows, source %s)", res.Ticker, res.Series.Len(), d.Fetcher.Name())
	return res, nil
}

func (d *Dashboard) run(ctx context.Context, path string) (*Result, error) {
	book, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	res, err := d.Build(ctx, book)
	if err != nil {
		return res, err
	}
	if err := book.Save(); err != nil {
		return res, fmt.Errorf("save workbook %s: %w", path, err)
	}
	return res, nil
}

// Build rebuilds the report sheet in memory. On any failure after the sheet
// was recreated it is deleted again; saving is left to the caller.
func (d *Dashboard) Build(ctx context.Context, book *workbook.Book) (*Result, error) {
	ticker, err := d.resolveTicker(ctx, book)
	if err != nil {
		return nil, err
	}
	res := &Result{Ticker: ticker}

	sheet := d.Options.SheetName
	if err := book.DeleteSheet(sheet); err != nil && !errors.Is(err, workbook.ErrSheetNotFound) {
		return res, err
	}
	if err := book.AddSheetAfterFirst(sheet); err != nil {
		return res, err
	}

	if err := d.fill(ctx, book, res); err != nil {
		if rbErr := book.DeleteSheet(sheet); rbErr != nil {
			log.Printf("[WARN] roll back sheet %s: %v", sheet, rbErr)
		}
		return res, err
	}
	return res, nil
}

func (d *Dashboard) resolveTicker(ctx context.Context, book *workbook.Book) (string, error) {
	name := d.Options.TickerName
	v, err := book.NamedValue(name)
	if errors.Is(err, workbook.ErrNameNotDefined) {
		d.alert(ctx, notifier.SetupRequired(name))
		return "", fmt.Errorf("%w: %w", ErrSetup, err)
	}
	if err != nil {
		return "", err
	}
	if v == "" {
		d.alert(ctx, notifier.MissingTicker(name))
		return "", fmt.Errorf("%w: %s is empty", ErrMissingTicker, name)
	}
	return strings.ToUpper(v), nil
}

func (d *Dashboard) fill(ctx context.Context, book *workbook.Book, res *Result) error {
	bars, err := d.Fetcher.FetchDailyBars(ctx, res.Ticker, HistoryDays)
	if errors.Is(err, collector.ErrNoData) || (err == nil && len(bars) == 0) {
		d.alert(ctx, notifier.InvalidTicker(res.Ticker))
		return fmt.Errorf("%w: %s", ErrInvalidTicker, res.Ticker)
	}
	if err != nil {
		return fmt.Errorf("fetch bars for %s: %w", res.Ticker, err)
	}
	res.Series = &model.HistoricalSeries{Symbol: res.Ticker, Bars: bars, FetchedAt: d.now()}
	res.Info = d.issuerInfo(ctx, res.Ticker)

	res.Metrics, err = calculator.ComputeMetrics(bars)
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}
	res.ChangeText = notifier.FormatChange(res.Metrics.Change, res.Metrics.ChangePct)

	r := &report{book: book, sheet: d.Options.SheetName}
	if err := r.write(res); err != nil {
		return err
	}

	png, err := chart.Render(res.Ticker, bars, d.Options.Chart)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	scale := d.Options.Chart.Scale
	if scale <= 0 {
		scale = 1
	}
	if err := book.PlacePicture(r.sheet, d.Options.ChartAnchor, chartName, png, 1/scale); err != nil {
		return err
	}
	return r.writeTimestamp(d.now())
}

// issuerInfo never fails: lookups that miss fall back to placeholders.
func (d *Dashboard) issuerInfo(ctx context.Context, ticker string) model.IssuerInfo {
	info, err := d.Fetcher.FetchIssuerInfo(ctx, ticker)
	switch {
	case errors.Is(err, collector.ErrInfoUnavailable):
		return model.PlaceholderIssuer(ticker)
	case err != nil:
		log.Printf("[WARN] issuer info for %s: %v", ticker, err)
		return model.PlaceholderIssuer(ticker)
	}
	return info.WithDefaults()
}

func (d *Dashboard) alert(ctx context.Context, a notifier.Alert) {
	if d.Alerter == nil {
		return
	}
	if err := d.Alerter.Alert(ctx, a); err != nil {
		log.Printf("[WARN] alert %q: %v", a.Title, err)
	}
}

func (d *Dashboard) record(rec *recorder.RunRecord, res *Result, err error) {
	switch {
	case err == nil:
		rec.Outcome = recorder.OutcomeSuccess
	case errors.Is(err, ErrSetup):
		rec.Outcome = recorder.OutcomeSetupRequired
	case errors.Is(err, ErrMissingTicker):
		rec.Outcome = recorder.OutcomeMissingTicker
	case errors.Is(err, ErrInvalidTicker):
		rec.Outcome = recorder.OutcomeInvalidTicker
	default:
		rec.Outcome = recorder.OutcomeFailed
	}
	if err != nil {
		rec.Note = err.Error()
	}
	if res != nil {
		rec.Ticker = res.Ticker
		rec.Company = res.Info.Name
		rec.Sector = res.Info.Sector
		if res.Series != nil {
			rec.Rows = res.Series.Len()
		}
		m := res.Metrics
		rec.LatestClose, rec.Change, rec.ChangePct = m.LatestClose, m.Change, m.ChangePct
		rec.High, rec.Low, rec.AvgVolume = m.High, m.Low, m.AvgVolume
	}
	if err := d.Recorder.RecordRun(rec); err != nil {
		log.Printf("[WARN] record run: %v", err)
	}
}
