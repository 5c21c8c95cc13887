package permissions

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

// writeMatrixCSV streams the effective matrix as a CSV grid: one row per
// catalog page, one column per action, in canonical order.
func writeMatrixCSV(w http.ResponseWriter, target ProfileRecord, m Matrix) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="permissions_%s.csv"`, target.ID))

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := []string{"group", "page", "label"}
	for _, a := range catalog.Actions() {
		header = append(header, string(a))
	}
	_ = cw.Write(header)

	for _, p := range catalog.Pages() {
		row := []string{p.Group, p.Key, p.Label}
		cell := m.Cell(p.Key)
		for _, a := range catalog.Actions() {
			row = append(row, strconv.FormatBool(cell.Allows(a)))
		}
		_ = cw.Write(row)
	}
	cw.Flush()
}
