package dashboard

import (
	"fmt"
	"math"
	"time"

	"StockDashboard/internal/calculator"
	"StockDashboard/internal/workbook"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"
)

const (
	chartName   = "stock_chart"
	tableTop    = 4
	tableHeader = "D4"

	colorBrand    = "0066CC"
	colorPositive = "008000"
	colorNegative = "FF0000"
	colorMuted    = "808080"
	currencyFmt   = "$#,##0.00"
)

var (
	summaryLabels = []string{
		"Ticker:", "Company:", "Sector:", "Current Price:",
		"30-Day Change:", "30-Day High:", "30-Day Low:", "Avg Volume:",
	}
	tableColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}
)

// report writes the fixed dashboard layout into one sheet.
type report struct {
	book  *workbook.Book
	sheet string
}

func (r *report) write(res *Result) error {
	steps := []func(*Result) error{
		r.writeTitle,
		r.writeSummary,
		r.writeTable,
	}
	for _, step := range steps {
		if err := step(res); err != nil {
			return err
		}
	}
	return r.book.AutoFit(r.sheet, "A", "I")
}

func (r *report) writeTitle(res *Result) error {
	if err := r.book.SetValue(r.sheet, "A1", "✅ Stock Analysis Dashboard - "+res.Ticker); err != nil {
		return err
	}
	return r.style("A1", "A1", &excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 18, Color: colorBrand},
	})
}

func (r *report) writeSummary(res *Result) error {
	for i, label := range summaryLabels {
		if err := r.book.SetValue(r.sheet, fmt.Sprintf("A%d", 3+i), label); err != nil {
			return err
		}
	}

	m := res.Metrics
	values := []struct {
		cell string
		v    any
	}{
		{"B3", res.Ticker},
		{"B4", res.Info.Name},
		{"B5", res.Info.Sector},
		{"B6", m.LatestClose},
		{"B7", res.ChangeText},
		{"B8", m.High},
		{"B9", m.Low},
		{"B10", humanize.Comma(int64(math.Round(m.AvgVolume)))},
	}
	for _, c := range values {
		if err := r.book.SetValue(r.sheet, c.cell, c.v); err != nil {
			return err
		}
	}

	changeColor := colorNegative
	if m.IsPositive() {
		changeColor = colorPositive
	}
	currency := currencyFmt
	styles := []struct {
		from, to string
		style    *excelize.Style
	}{
		{"B3", "B3", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{"B6", "B6", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, CustomNumFmt: &currency}},
		{"B7", "B7", &excelize.Style{Font: &excelize.Font{Bold: true, Color: changeColor}}},
		{"B8", "B9", &excelize.Style{CustomNumFmt: &currency}},
	}
	for _, s := range styles {
		if err := r.style(s.from, s.to, s.style); err != nil {
			return err
		}
	}
	return nil
}

func (r *report) writeTable(res *Result) error {
	if err := r.book.SetValue(r.sheet, "D3", "Historical Data (Last 30 Days)"); err != nil {
		return err
	}
	if err := r.style("D3", "D3", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}); err != nil {
		return err
	}

	header := make([]any, len(tableColumns))
	for i, c := range tableColumns {
		header[i] = c
	}
	if err := r.book.SetRow(r.sheet, tableHeader, header); err != nil {
		return err
	}
	bars := res.Series.Bars
	for i, b := range bars {
		rb := calculator.RoundBar(b)
		row := []any{rb.Time.Format("2006-01-02"), rb.Open, rb.High, rb.Low, rb.Close, rb.Volume}
		if err := r.book.SetRow(r.sheet, fmt.Sprintf("D%d", tableTop+1+i), row); err != nil {
			return err
		}
	}

	bottom := fmt.Sprintf("I%d", tableTop+len(bars))
	if err := r.style(tableHeader, bottom, &excelize.Style{Border: thinBorder()}); err != nil {
		return err
	}
	return r.style(tableHeader, "I4", &excelize.Style{
		Border: thinBorder(),
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorBrand}},
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
	})
}

func (r *report) writeTimestamp(at time.Time) error {
	if err := r.book.SetValue(r.sheet, "A12", "Last updated: "+at.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	return r.style("A12", "A12", &excelize.Style{Font: &excelize.Font{Size: 9, Color: colorMuted}})
}

func (r *report) style(from, to string, st *excelize.Style) error {
	_, err := r.book.ApplyStyle(r.sheet, from, to, st)
	return err
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "000000", Style: 1}
	}
	return borders
}
