// Package workbook wraps an excelize file with the few sheet operations the dashboard needs.
package workbook

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNameNotDefined is returned when a defined name is missing or does not point at a cell.
	ErrNameNotDefined = errors.New("defined name not found")
	// ErrSheetNotFound is returned when a sheet lookup misses.
	ErrSheetNotFound = errors.New("sheet not found")
)

const (
	defaultColWidth = 8.43
	maxColWidth     = 80
)

// Book is an open workbook.
type Book struct {
	f *excelize.File
}

// Open opens an existing .xlsx or .xlsm file.
func Open(path string) (*Book, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Book{f: f}, nil
}

// Wrap adopts an already open excelize file.
func Wrap(f *excelize.File) *Book {
	return &Book{f: f}
}

// File exposes the underlying excelize handle.
func (b *Book) File() *excelize.File { return b.f }

// Sheets lists sheet names in workbook order.
func (b *Book) Sheets() []string {
	return b.f.GetSheetList()
}

// HasSheet reports whether a sheet with the given name exists.
func (b *Book) HasSheet(name string) bool {
	idx, err := b.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// NamedValue returns the trimmed text of the cell a defined name refers to.
// Workbook-scoped names win over sheet-scoped ones.
func (b *Book) NamedValue(name string) (string, error) {
	var refersTo string
	for _, dn := range b.f.GetDefinedName() {
		if !strings.EqualFold(dn.Name, name) {
			continue
		}
		if refersTo == "" || dn.Scope == "Workbook" || dn.Scope == "" {
			refersTo = dn.RefersTo
		}
	}
	if refersTo == "" {
		return "", fmt.Errorf("%w: %s", ErrNameNotDefined, name)
	}
	sheet, cell, err := parseReference(refersTo)
	if err != nil || !b.HasSheet(sheet) {
		return "", fmt.Errorf("%w: %s refers to %q", ErrNameNotDefined, name, refersTo)
	}
	v, err := b.f.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	return strings.TrimSpace(v), nil
}

// DeleteSheet removes a sheet. A missing sheet yields ErrSheetNotFound.
func (b *Book) DeleteSheet(name string) error {
	if !b.HasSheet(name) {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	if err := b.f.DeleteSheet(name); err != nil {
		return fmt.Errorf("delete sheet %s: %w", name, err)
	}
	return nil
}

// AddSheetAfterFirst creates an empty sheet directly after the first sheet
// and makes it the active one.
func (b *Book) AddSheetAfterFirst(name string) error {
	if _, err := b.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	sheets := b.f.GetSheetList()
	if len(sheets) > 2 && sheets[1] != name {
		before := b.f.GetDefinedName()
		if err := b.f.MoveSheet(name, sheets[1]); err != nil {
			return fmt.Errorf("move sheet %s: %w", name, err)
		}
		if err := b.restoreNameScopes(before); err != nil {
			return err
		}
	}
	idx, err := b.f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("locate sheet %s: %w", name, err)
	}
	b.f.SetActiveSheet(idx)
	return nil
}

// restoreNameScopes puts sheet-scoped names back on the sheet they belonged to.
// Moving a sheet keeps each name's sheet index, so names scoped to a shifted
// sheet end up attached to its new neighbour.
func (b *Book) restoreNameScopes(before []excelize.DefinedName) error {
	after := b.f.GetDefinedName()
	if len(after) != len(before) {
		return fmt.Errorf("defined names changed while moving sheets: %d -> %d", len(before), len(after))
	}
	var moved []int
	for i := range before {
		if before[i].Scope != after[i].Scope {
			moved = append(moved, i)
		}
	}
	for _, i := range moved {
		if err := b.f.DeleteDefinedName(&excelize.DefinedName{Name: after[i].Name, Scope: after[i].Scope}); err != nil {
			return fmt.Errorf("detach name %s from %s: %w", after[i].Name, after[i].Scope, err)
		}
	}
	for _, i := range moved {
		dn := before[i]
		if err := b.f.SetDefinedName(&excelize.DefinedName{
			Name:     dn.Name,
			Comment:  dn.Comment,
			RefersTo: dn.RefersTo,
			Scope:    dn.Scope,
		}); err != nil {
			return fmt.Errorf("restore name %s on %s: %w", dn.Name, dn.Scope, err)
		}
	}
	return nil
}

// SetValue writes a single cell.
func (b *Book) SetValue(sheet, cell string, v any) error {
	if err := b.f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// SetRow writes values left to right starting at cell.
func (b *Book) SetRow(sheet, cell string, values []any) error {
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// CellValue reads the formatted text of a cell.
func (b *Book) CellValue(sheet, cell string) (string, error) {
	return b.f.GetCellValue(sheet, cell)
}

// CellStyle returns the style id applied to a cell.
func (b *Book) CellStyle(sheet, cell string) (int, error) {
	return b.f.GetCellStyle(sheet, cell)
}

// ApplyStyle registers st and applies it to the inclusive range topLeft:bottomRight.
func (b *Book) ApplyStyle(sheet, topLeft, bottomRight string, st *excelize.Style) (int, error) {
	id, err := b.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	if err := b.f.SetCellStyle(sheet, topLeft, bottomRight, id); err != nil {
		return 0, fmt.Errorf("style %s!%s:%s: %w", sheet, topLeft, bottomRight, err)
	}
	return id, nil
}

// Style looks up the definition behind a style id.
func (b *Book) Style(id int) (*excelize.Style, error) {
	return b.f.GetStyle(id)
}

// AutoFit sizes columns fromCol..toCol to their longest displayed value.
func (b *Book) AutoFit(sheet, fromCol, toCol string) error {
	from, err := excelize.ColumnNameToNumber(fromCol)
	if err != nil {
		return err
	}
	to, err := excelize.ColumnNameToNumber(toCol)
	if err != nil {
		return err
	}
	rows, err := b.f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read rows of %s: %w", sheet, err)
	}
	for col := from; col <= to; col++ {
		width := defaultColWidth
		for _, row := range rows {
			if col-1 >= len(row) {
				continue
			}
			if w := float64(utf8.RuneCountInString(row[col-1])) + 2; w > width {
				width = w
			}
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		name, _ := excelize.ColumnNumberToName(col)
		if err := b.f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("set width of %s: %w", name, err)
		}
	}
	return nil
}

// ColWidth returns the width of a column.
func (b *Book) ColWidth(sheet, col string) (float64, error) {
	return b.f.GetColWidth(sheet, col)
}

// PlacePicture anchors a PNG at cell, replacing any picture already anchored there.
// scale maps image pixels to the logical size shown in the sheet.
func (b *Book) PlacePicture(sheet, cell, name string, png []byte, scale float64) error {
	if err := b.f.DeletePicture(sheet, cell); err != nil {
		return fmt.Errorf("remove picture at %s!%s: %w", sheet, cell, err)
	}
	if scale <= 0 {
		scale = 1
	}
	err := b.f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format: &excelize.GraphicOptions{
			AltText:         name,
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
		},
	})
	if err != nil {
		return fmt.Errorf("add picture at %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// Pictures returns the pictures anchored at cell.
func (b *Book) Pictures(sheet, cell string) ([]excelize.Picture, error) {
	return b.f.GetPictures(sheet, cell)
}

// Save writes the workbook back to the path it was opened from.
func (b *Book) Save() error {
	return b.f.Save()
}

// SaveAs writes the workbook to path.
func (b *Book) SaveAs(path string) error {
	return b.f.SaveAs(path)
}

// Close releases the file's temporary resources.
func (b *Book) Close() error {
	return b.f.Close()
}
