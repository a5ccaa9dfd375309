package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseReference splits a defined-name target such as "'My Sheet'!$B$2" or
// "Inputs!$A$1:$A$1" into a sheet name and its top-left cell.
func parseReference(ref string) (sheet, cell string, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	bang := strings.LastIndex(ref, "!")
	if bang <= 0 || bang == len(ref)-1 {
		return "", "", fmt.Errorf("reference %q has no sheet", ref)
	}
	sheet = ref[:bang]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	target := ref[bang+1:]
	if i := strings.Index(target, ":"); i >= 0 {
		target = target[:i]
	}
	target = strings.ReplaceAll(target, "$", "")
	if strings.Contains(target, "#REF") {
		return "", "", fmt.Errorf("reference %q is broken", ref)
	}
	if _, _, err := excelize.CellNameToCoordinates(target); err != nil {
		return "", "", fmt.Errorf("reference %q: %w", ref, err)
	}
	return sheet, target, nil
}
