package parsers

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/salyq-kz/declaration-service/internal/models"
)

func TestExcelParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"type", "date", "amount", "currency", "broker"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"EV_FOREIGN_DIVIDENDS", "2024-06-15", "500000", "USD", "IBKR"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"EV_FOREIGN_INTEREST", "15.03.2024", "250000", "", ""}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	payload := fmt.Sprintf(`{"file_base64": %q}`, base64.StdEncoding.EncodeToString(buf.Bytes()))
	events, err := (&ExcelParser{}).Parse(record(models.SourceExcel, payload))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "EV_FOREIGN_DIVIDENDS", first.EventTypeCode)
	assert.Equal(t, "500000", first.Amount.String())
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "IBKR", first.Metadata["broker"])
	assert.True(t, first.EventDate.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))

	second := events[1]
	assert.Equal(t, "EV_FOREIGN_INTEREST", second.EventTypeCode)
	assert.Equal(t, "KZT", second.Currency)
	assert.Nil(t, second.Metadata)
}

func TestExcelParseSheetGrids(t *testing.T) {
	rec := record(models.SourceExcel, `{"sheets": {
		"Прочее": [["type", "date", "amount"], ["EV_OTHER_NON_AGENT", "2024-10-01", 70000]],
		"Аренда": [["type", "date", "amount"], ["EV_RENT_NON_AGENT", "2024-02-01", 240000]]
	}}`)
	events, err := (&ExcelParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// sheets are walked in name order, so the output is stable
	assert.Equal(t, "EV_RENT_NON_AGENT", events[0].EventTypeCode)
	assert.Equal(t, "EV_OTHER_NON_AGENT", events[1].EventTypeCode)
}

func TestExcelSheetErrorsNameTheSheet(t *testing.T) {
	rec := record(models.SourceExcel, `{"sheets": {
		"Доходы": [["type", 42], ["EV_OTHER_NON_AGENT", "x"]]
	}}`)
	_, err := (&ExcelParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet Доходы")
	assert.Contains(t, err.Error(), "header 1 is not a string")
}

func TestExcelPayloadMustCarryWorkbookOrSheets(t *testing.T) {
	_, err := (&ExcelParser{}).Parse(record(models.SourceExcel, `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"file_base64" or "sheets"`)
}

func TestExcelRejectsBadBase64(t *testing.T) {
	_, err := (&ExcelParser{}).Parse(record(models.SourceExcel, `{"file_base64": "!!!"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base64")
}
