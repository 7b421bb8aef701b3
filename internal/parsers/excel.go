package parsers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// ExcelParser handles spreadsheet uploads. The payload is either the workbook
// itself under "file_base64" or pre-extracted grids under "sheets". Every
// sheet is read; the first row of each sheet names its columns.
type ExcelParser struct{}

func (p *ExcelParser) Kind() models.SourceKind { return models.SourceExcel }

func (p *ExcelParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	rows, err := excelRows(rec.RawPayload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "excel payload")
	}
	return tabularEvents(rec, rows)
}

func excelRows(raw []byte) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload struct {
		FileBase64 string                      `json:"file_base64"`
		Sheets     map[string][][]interface{} `json:"sheets"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if payload.FileBase64 != "" {
		return rowsFromWorkbook(payload.FileBase64)
	}
	if len(payload.Sheets) > 0 {
		return rowsFromSheetGrids(payload.Sheets)
	}
	return nil, fmt.Errorf(`payload must carry "file_base64" or "sheets"`)
}

func rowsFromWorkbook(encoded string) ([]map[string]interface{}, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var out []map[string]interface{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		mapped, err := sheetToRows(sheet, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped...)
	}
	return out, nil
}

func rowsFromSheetGrids(sheets map[string][][]interface{}) ([]map[string]interface{}, error) {
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []map[string]interface{}
	for _, name := range names {
		grid := sheets[name]
		if len(grid) == 0 {
			continue
		}
		headers := grid[0]
		rows := make([]interface{}, 0, len(grid)-1)
		for _, r := range grid[1:] {
			cells := make([]interface{}, len(r))
			copy(cells, r)
			rows = append(rows, cells)
		}
		mapped, err := rowsFromGrid(headers, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		out = append(out, mapped...)
	}
	return out, nil
}

func sheetToRows(sheet string, rows [][]string) ([]map[string]interface{}, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers := make([]interface{}, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = h
	}
	data := make([]interface{}, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if isEmptyRow(r) {
			continue
		}
		cells := make([]interface{}, len(r))
		for i, c := range r {
			cells[i] = c
		}
		data = append(data, cells)
	}
	mapped, err := rowsFromGrid(headers, data)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return mapped, nil
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
