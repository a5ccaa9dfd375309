package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"StockDashboard/internal/chart"
	"StockDashboard/internal/collector"
	"StockDashboard/internal/model"
	"StockDashboard/internal/notifier"
	"StockDashboard/internal/recorder"
	"StockDashboard/internal/workbook"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Stock Dashboard"

var fixedNow = time.Date(2024, 3, 15, 16, 30, 5, 0, time.UTC)

func testOptions() Options {
	return Options{
		TickerName:  "TICKER",
		SheetName:   reportSheet,
		ChartAnchor: "K4",
		Chart:       chart.Options{Width: 300, Height: 200, Scale: 1},
	}
}

// newInputFile returns a workbook with the ticker in Sheet1!B2, optionally
// exposed through the TICKER name.
func newInputFile(t *testing.T, ticker string, defineName bool) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A2", "Ticker"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "B2", ticker); err != nil {
		t.Fatal(err)
	}
	if defineName {
		if err := f.SetDefinedName(&excelize.DefinedName{Name: "TICKER", RefersTo: "Sheet1!$B$2"}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func newInputBook(t *testing.T, ticker string, defineName bool) *workbook.Book {
	t.Helper()
	f := newInputFile(t, ticker, defineName)
	t.Cleanup(func() { f.Close() })
	return workbook.Wrap(f)
}

// bars closes at start, start+step, ... over n days.
func bars(n int, start, step float64) []model.OHLCV {
	out := make([]model.OHLCV, n)
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := start + float64(i)*step
		out[i] = model.OHLCV{
			Time:   day.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000 + float64(i)*1000,
		}
	}
	return out
}

type memRecorder struct {
	runs []recorder.RunRecord
}

func (m *memRecorder) RecordRun(r *recorder.RunRecord) error {
	m.runs = append(m.runs, *r)
	return nil
}
func (m *memRecorder) ListRuns(int) ([]recorder.RunRecord, error) { return m.runs, nil }
func (m *memRecorder) Close() error                               { return nil }

func newDashboard(f collector.Fetcher) (*Dashboard, *notifier.MemoryAlerter, *memRecorder) {
	alerts := &notifier.MemoryAlerter{}
	rec := &memRecorder{}
	d := New(f, alerts, rec, testOptions())
	d.Now = func() time.Time { return fixedNow }
	return d, alerts, rec
}

func cell(t *testing.T, b *workbook.Book, ref string) string {
	t.Helper()
	v, err := b.CellValue(reportSheet, ref)
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return v
}

func fontColor(t *testing.T, b *workbook.Book, ref string) string {
	t.Helper()
	id, err := b.CellStyle(reportSheet, ref)
	if err != nil {
		t.Fatal(err)
	}
	st, err := b.Style(id)
	if err != nil {
		t.Fatal(err)
	}
	if st.Font == nil {
		return ""
	}
	return strings.ToUpper(st.Font.Color)
}

func TestBuild_Layout(t *testing.T) {
	book := newInputBook(t, " aapl ", true)
	d, alerts, _ := newDashboard(&collector.MockFetcher{
		DailyData: bars(21, 100, 1),
		Info:      &model.IssuerInfo{Name: "Apple Inc.", Sector: "Technology"},
	})

	res, err := d.Build(context.Background(), book)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Ticker != "AAPL" {
		t.Errorf("ticker = %q", res.Ticker)
	}
	if got := book.Sheets(); !reflect.DeepEqual(got, []string{"Sheet1", reportSheet}) {
		t.Errorf("sheets = %v", got)
	}

	want := map[string]string{
		"A1":  "✅ Stock Analysis Dashboard - AAPL",
		"A3":  "Ticker:",
		"A10": "Avg Volume:",
		"B3":  "AAPL",
		"B4":  "Apple Inc.",
		"B5":  "Technology",
		"B7":  "$20.00 (+20.00%)",
		"B10": "1,010,000",
		"D3":  "Historical Data (Last 30 Days)",
		"D4":  "Date",
		"I4":  "Volume",
		"D5":  "2024-02-01",
		"D25": "2024-02-21",
		"H25": "120",
		"A12": "Last updated: 2024-03-15 16:30:05",
	}
	for ref, v := range want {
		if got := cell(t, book, ref); got != v {
			t.Errorf("%s = %q, want %q", ref, got, v)
		}
	}
	if got := cell(t, book, "D26"); got != "" {
		t.Errorf("table should end at row 25, D26 = %q", got)
	}
	raw, _ := book.File().GetCellValue(reportSheet, "B6", excelize.Options{RawCellValue: true})
	if raw != "120" {
		t.Errorf("B6 raw = %q, want 120", raw)
	}

	pics, err := book.Pictures(reportSheet, "K4")
	if err != nil {
		t.Fatal(err)
	}
	if len(pics) != 1 {
		t.Errorf("pictures at K4 = %d, want 1", len(pics))
	}

	// The success alert is only sent once the file is saved.
	if len(alerts.Alerts) != 0 {
		t.Errorf("unexpected alerts %v", alerts.Titles())
	}
}

func TestBuild_Idempotent(t *testing.T) {
	book := newInputBook(t, "MSFT", true)
	d, _, _ := newDashboard(&collector.MockFetcher{DailyData: bars(20, 300, -0.5)})

	var snapshots [][][]string
	for i := 0; i < 2; i++ {
		if _, err := d.Build(context.Background(), book); err != nil {
			t.Fatalf("Build #%d: %v", i+1, err)
		}
		rows, err := book.File().GetRows(reportSheet)
		if err != nil {
			t.Fatal(err)
		}
		snapshots = append(snapshots, rows)
	}

	if got := book.Sheets(); !reflect.DeepEqual(got, []string{"Sheet1", reportSheet}) {
		t.Errorf("sheets after two runs = %v", got)
	}
	if !reflect.DeepEqual(snapshots[0], snapshots[1]) {
		t.Error("second run produced different cell contents")
	}
	pics, _ := book.Pictures(reportSheet, "K4")
	if len(pics) != 1 {
		t.Errorf("pictures = %d, want 1", len(pics))
	}
}

func TestBuild_RepeatedRunsKeepSheetScopedInput(t *testing.T) {
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	if _, err := f.NewSheet("Inputs"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Inputs", "B2", "AMZN"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetDefinedName(&excelize.DefinedName{Name: "TICKER", RefersTo: "Inputs!$B$2", Scope: "Inputs"}); err != nil {
		t.Fatal(err)
	}
	book := workbook.Wrap(f)
	d, _, _ := newDashboard(&collector.MockFetcher{DailyData: bars(5, 180, 1)})

	for i := 0; i < 3; i++ {
		res, err := d.Build(context.Background(), book)
		if err != nil {
			t.Fatalf("Build #%d: %v", i+1, err)
		}
		if res.Ticker != "AMZN" {
			t.Errorf("Build #%d: ticker = %q", i+1, res.Ticker)
		}
		names := f.GetDefinedName()
		if len(names) != 1 || names[0].Name != "TICKER" || names[0].Scope != "Inputs" || names[0].RefersTo != "Inputs!$B$2" {
			t.Fatalf("Build #%d: defined names = %+v", i+1, names)
		}
	}
	if got := book.Sheets(); !reflect.DeepEqual(got, []string{"Sheet1", reportSheet, "Inputs"}) {
		t.Errorf("sheets = %v", got)
	}
}

func TestBuild_SetupRequired(t *testing.T) {
	book := newInputBook(t, "AAPL", false)
	d, alerts, _ := newDashboard(&collector.MockFetcher{})

	_, err := d.Build(context.Background(), book)
	if !errors.Is(err, ErrSetup) || !errors.Is(err, workbook.ErrNameNotDefined) {
		t.Fatalf("expected ErrSetup wrapping ErrNameNotDefined, got %v", err)
	}
	if book.HasSheet(reportSheet) {
		t.Error("report sheet must not be created")
	}
	if got := alerts.Titles(); !reflect.DeepEqual(got, []string{notifier.TitleSetup}) {
		t.Errorf("alerts = %v", got)
	}
}

func TestBuild_MissingTicker(t *testing.T) {
	for _, v := range []string{"", "   "} {
		book := newInputBook(t, v, true)
		d, alerts, _ := newDashboard(&collector.MockFetcher{})

		_, err := d.Build(context.Background(), book)
		if !errors.Is(err, ErrMissingTicker) {
			t.Fatalf("ticker %q: expected ErrMissingTicker, got %v", v, err)
		}
		if book.HasSheet(reportSheet) {
			t.Errorf("ticker %q: report sheet must not be created", v)
		}
		if got := alerts.Titles(); !reflect.DeepEqual(got, []string{notifier.TitleMissing}) {
			t.Errorf("ticker %q: alerts = %v", v, got)
		}
	}
}

func TestBuild_NoDataRollsBack(t *testing.T) {
	book := newInputBook(t, "zzzz", true)
	if _, err := book.File().NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}
	before := book.Sheets()
	d, alerts, _ := newDashboard(&collector.MockFetcher{DailyData: []model.OHLCV{}})

	_, err := d.Build(context.Background(), book)
	if !errors.Is(err, ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
	if !IsAbort(err) {
		t.Error("invalid ticker should count as an abort")
	}
	if got := book.Sheets(); !reflect.DeepEqual(got, before) {
		t.Errorf("sheets = %v, want %v", got, before)
	}
	if len(alerts.Alerts) != 1 || alerts.Alerts[0].Body != notifier.InvalidTicker("ZZZZ").Body {
		t.Errorf("alerts = %+v", alerts.Alerts)
	}
}

func TestBuild_FetchFailureRollsBack(t *testing.T) {
	book := newInputBook(t, "AAPL", true)
	boom := errors.New("connection reset")
	d, alerts, _ := newDashboard(&collector.MockFetcher{BarsErr: boom})

	_, err := d.Build(context.Background(), book)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if IsAbort(err) {
		t.Error("transport failures are not user-facing aborts")
	}
	if book.HasSheet(reportSheet) {
		t.Error("report sheet should be rolled back")
	}
	if len(alerts.Alerts) != 0 {
		t.Errorf("unexpected alerts %v", alerts.Titles())
	}
}

func TestBuild_IssuerPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *collector.MockFetcher
		company string
		sector  string
	}{
		{"unavailable", &collector.MockFetcher{InfoErr: collector.ErrInfoUnavailable}, "TSLA", "N/A"},
		{"transport error", &collector.MockFetcher{InfoErr: errors.New("timeout")}, "TSLA", "N/A"},
		{"partial profile", &collector.MockFetcher{Info: &model.IssuerInfo{Name: "Tesla, Inc."}}, "Tesla, Inc.", "N/A"},
	}
	for _, tt := range tests {
		tt.fetcher.DailyData = bars(5, 200, 2)
		book := newInputBook(t, "tsla", true)
		d, _, _ := newDashboard(tt.fetcher)
		if _, err := d.Build(context.Background(), book); err != nil {
			t.Fatalf("%s: Build: %v", tt.name, err)
		}
		if got := cell(t, book, "B4"); got != tt.company {
			t.Errorf("%s: company = %q, want %q", tt.name, got, tt.company)
		}
		if got := cell(t, book, "B5"); got != tt.sector {
			t.Errorf("%s: sector = %q, want %q", tt.name, got, tt.sector)
		}
	}
}

func TestBuild_ChangeColour(t *testing.T) {
	tests := []struct {
		name  string
		step  float64
		color string
		text  string
	}{
		{"gain", 1, colorPositive, "$4.00 (+4.00%)"},
		{"flat", 0, colorPositive, "$0.00 (+0.00%)"},
		{"loss", -1, colorNegative, "$-4.00 (-4.00%)"},
	}
	for _, tt := range tests {
		book := newInputBook(t, "IBM", true)
		d, _, _ := newDashboard(&collector.MockFetcher{DailyData: bars(5, 100, tt.step)})
		if _, err := d.Build(context.Background(), book); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := cell(t, book, "B7"); got != tt.text {
			t.Errorf("%s: B7 = %q, want %q", tt.name, got, tt.text)
		}
		if got := fontColor(t, book, "B7"); !strings.HasSuffix(got, tt.color) {
			t.Errorf("%s: colour = %q, want %s", tt.name, got, tt.color)
		}
	}
}

func TestBuild_PercentChange(t *testing.T) {
	book := newInputBook(t, "NVDA", true)
	data := bars(30, 80, 0.75)
	d, _, _ := newDashboard(&collector.MockFetcher{DailyData: data})
	res, err := d.Build(context.Background(), book)
	if err != nil {
		t.Fatal(err)
	}
	first, last := data[0].Close, data[len(data)-1].Close
	want := (last - first) / first * 100
	if diff := res.Metrics.ChangePct - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("pct = %v, want %v", res.Metrics.ChangePct, want)
	}
	if res.Metrics.High != data[len(data)-1].High || res.Metrics.Low != data[0].Low {
		t.Errorf("range = %v..%v", res.Metrics.Low, res.Metrics.High)
	}
}

func saveInput(t *testing.T, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestRun_SavesAndRecords(t *testing.T) {
	path := saveInput(t, newInputFile(t, "AAPL", true))
	d, alerts, rec := newDashboard(&collector.MockFetcher{DailyData: bars(10, 150, 1.5)})

	if _, err := d.Run(context.Background(), path); err != nil {
		t.Fatalf("Run: %v", err)
	}

	book, err := workbook.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()
	if got := cell(t, book, "B3"); got != "AAPL" {
		t.Errorf("saved B3 = %q", got)
	}
	if got := alerts.Titles(); !reflect.DeepEqual(got, []string{notifier.TitleSuccess}) {
		t.Errorf("alerts = %v", got)
	}
	if !strings.Contains(alerts.Alerts[0].Body, "Current Price: $163.50") {
		t.Errorf("success body = %q", alerts.Alerts[0].Body)
	}
	if len(rec.runs) != 1 || rec.runs[0].Outcome != recorder.OutcomeSuccess || rec.runs[0].Rows != 10 {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestRun_AbortLeavesFileUntouched(t *testing.T) {
	path := saveInput(t, newInputFile(t, "AAPL", true))
	good, _, _ := newDashboard(&collector.MockFetcher{DailyData: bars(10, 150, 1)})
	if _, err := good.Run(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	bad, _, rec := newDashboard(&collector.MockFetcher{DailyData: []model.OHLCV{}})
	if _, err := bad.Run(context.Background(), path); !errors.Is(err, ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Outcome != recorder.OutcomeInvalidTicker {
		t.Errorf("recorded runs = %+v", rec.runs)
	}

	book, err := workbook.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()
	if got := book.Sheets(); !reflect.DeepEqual(got, []string{"Sheet1", reportSheet}) {
		t.Errorf("sheets on disk = %v", got)
	}
	if got := cell(t, book, "B3"); got != "AAPL" {
		t.Errorf("previous report lost, B3 = %q", got)
	}
}
