// Package importer turns an uploaded spreadsheet into attendee rows. The
// parsing side (excelize) is kept separate from persistence: Parse produces
// repository.ImportRow values and the caller hands them to the store's
// transactional upsert.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/khlin/ticket-registration/internal/repository"
)

var (
	// ErrEmptySheet is returned for workbooks with no data rows below the header.
	ErrEmptySheet = errors.New("empty sheet")
	// ErrBadWorkbook is returned when the upload is not a readable workbook.
	ErrBadWorkbook = errors.New("unreadable workbook")
)

// headerSynonyms maps normalized header cells to canonical field names. The
// roster sheets come from several offices, so both English and Chinese
// variants appear in the wild. Adding a synonym is a table entry, not code.
var headerSynonyms = map[string]string{
	"class": "klass", "班級": "klass", "班級別": "klass", "班級名稱": "klass",
	"studentno": "student_no", "學號": "student_no", "學員編號": "student_no", "學籍號": "student_no",
	"name": "name", "姓名": "name", "學生姓名": "name",
	"seat": "seat_area", "seatarea": "seat_area", "座位區": "seat_area", "座位": "seat_area", "區域": "seat_area",
	"amount": "amount_due", "amountdue": "amount_due", "應收金額": "amount_due", "金額": "amount_due", "票價": "amount_due",
	"phone": "phone", "電話": "phone", "手機": "phone", "聯絡電話": "phone", "mobile": "phone",
}

// NormalizeHeader lowercases a header cell, strips all whitespace and maps
// known synonyms to their canonical field name. Unrecognized headers pass
// through normalized; downstream mapping simply ignores them.
func NormalizeHeader(h string) string {
	s := strings.ToLower(strings.Join(strings.Fields(h), ""))
	if canon, ok := headerSynonyms[s]; ok {
		return canon
	}
	return s
}

// Parse reads the first sheet of an xlsx workbook and returns the attendee
// rows it contains. The first row must be a header; rows where both
// student_no and name are empty are skipped. A workbook without data rows
// yields ErrEmptySheet, an unreadable upload ErrBadWorkbook.
func Parse(r io.Reader) ([]repository.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	if len(raw) < 2 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = NormalizeHeader(h)
	}

	var out []repository.ImportRow
	for _, cells := range raw[1:] {
		row := mapRow(headers, cells)
		if row.StudentNo == "" && row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// mapRow aligns one data row with the normalized header and fills an
// ImportRow. Missing trailing cells read as empty strings.
func mapRow(headers, cells []string) repository.ImportRow {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	var row repository.ImportRow
	for i, h := range headers {
		switch h {
		case "klass":
			row.Klass = cell(i)
		case "student_no":
			row.StudentNo = cell(i)
		case "name":
			row.Name = cell(i)
		case "seat_area":
			row.SeatArea = cell(i)
		case "phone":
			row.Phone = cell(i)
		case "amount_due":
			row.AmountDue = parseAmount(cell(i))
		}
	}
	return row
}

// parseAmount coerces a cell to a non-negative amount; anything that does
// not parse counts as 0.
func parseAmount(s string) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
