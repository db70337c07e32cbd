package ingest

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/model"
)

// Parcel sheet columns. Header matching ignores case and treats spaces as
// underscores.
const (
	ColPhaseID     = "phase_id"
	ColTypeCode    = "type_code"
	ColGrossAcres  = "gross_acres"
	ColUnitsTotal  = "units_total"
	ColLotWidth    = "lot_width"
	ColSalePeriod  = "sale_period"
	ColProductCode = "product_code"
)

var knownColumns = []string{
	ColPhaseID, ColTypeCode, ColGrossAcres, ColUnitsTotal,
	ColLotWidth, ColSalePeriod, ColProductCode,
}

// ReadParcels reads a .xlsx or .csv parcel sheet, chosen by extension.
func ReadParcels(path string, opts Options) ([]model.Parcel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadParcelsXLSX(path, opts)
	case ".csv":
		return ReadParcelsCSV(path)
	}
	return nil, apperr.Validation("unsupported parcel file %q (want .xlsx or .csv)", filepath.Base(path))
}

// ReadParcelsXLSX reads parcels from a worksheet whose first row names the
// columns.
func ReadParcelsXLSX(path string, opts Options) ([]model.Parcel, error) {
	rows, err := readXLSX(path, opts)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read parcels")
	}
	return ParseParcels(rows)
}

// ReadParcelsCSV reads parcels from a CSV file with a header row.
func ReadParcelsCSV(path string) ([]model.Parcel, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close() //nolint:errcheck

	rows, err := readCSV(f)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read parcels")
	}
	return ParseParcels(rows)
}

// ParseParcels maps header-led rows onto parcels. Blank rows are skipped; a
// blank phase_id leaves the parcel unassigned. Errors name the 1-based sheet
// row.
func ParseParcels(rows [][]string) ([]model.Parcel, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation("parcel sheet is empty")
	}

	index := headerIndex(rows[0])
	if _, ok := index[ColTypeCode]; !ok {
		return nil, apperr.Validation("parcel sheet is missing the %s column", ColTypeCode)
	}
	hasQuantity := false
	for _, c := range []string{ColGrossAcres, ColUnitsTotal} {
		if _, ok := index[c]; ok {
			hasQuantity = true
		}
	}
	if !hasQuantity {
		return nil, apperr.Validation("parcel sheet needs a %s or %s column", ColGrossAcres, ColUnitsTotal)
	}

	var parcels []model.Parcel
	for i, row := range rows[1:] {
		r := record{num: i + 2, cells: row, index: index}
		if r.blank() {
			continue
		}
		p, err := r.parcel()
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		for _, known := range knownColumns {
			if name == known {
				if _, dup := index[name]; !dup {
					index[name] = i
				}
			}
		}
	}
	return index
}

type record struct {
	num   int
	cells []string
	index map[string]int
}

func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

func (r record) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r record) errorf(col, value, want string) error {
	return apperr.Validation("row %d: %s %q is not %s", r.num, col, value, want)
}

func (r record) parcel() (model.Parcel, error) {
	p := model.Parcel{
		TypeCode:    strings.ToUpper(r.get(ColTypeCode)),
		ProductCode: r.get(ColProductCode),
	}
	if p.TypeCode == "" {
		return p, apperr.Validation("row %d: %s is required", r.num, ColTypeCode)
	}

	var err error
	if p.PhaseID, err = r.optionalID(ColPhaseID); err != nil {
		return p, err
	}
	if p.GrossAcres, err = r.float(ColGrossAcres); err != nil {
		return p, err
	}
	if p.LotWidth, err = r.float(ColLotWidth); err != nil {
		return p, err
	}
	units, err := r.integer(ColUnitsTotal)
	if err != nil {
		return p, err
	}
	p.UnitsTotal = units

	if v := r.get(ColSalePeriod); v != "" {
		period, err := r.integer(ColSalePeriod)
		if err != nil {
			return p, err
		}
		p.SalePeriod = &period
	}
	return p, nil
}

func (r record) float(col string) (float64, error) {
	v := r.get(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, r.errorf(col, v, "a non-negative number")
	}
	return f, nil
}

func (r record) integer(col string) (int, error) {
	f, err := r.float(col)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, r.errorf(col, r.get(col), "a whole number")
	}
	return int(f), nil
}

func (r record) optionalID(col string) (*int64, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	id, err := r.integer(col)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, r.errorf(col, v, "a positive id")
	}
	out := int64(id)
	return &out, nil
}
