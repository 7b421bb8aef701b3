package xmlgen

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/models"
)

func strPtr(s string) *string { return &s }

func fixtureDeclaration(t *testing.T) *models.Declaration {
	t.Helper()
	decl := &models.Declaration{
		ID:         uuid.New(),
		TaxpayerID: uuid.New(),
		TaxYear:    2024,
		FormCode:   "270.00",
		Kind:       models.DeclarationKindMain,
		Status:     models.StatusValidated,
		IIN:        "900101300123",
		LastName:   "Aliyeva",
		FirstName:  "Dana",
		MiddleName: "Serikovna",
		Phone:      "+77011234567",
		Email:      "dana@example.kz",
	}
	require.NoError(t, decl.SetFlagMap(map[string]bool{"pril_1": true, "pril_2": false}))
	return decl
}

func fixtureItems() []models.DeclarationItem {
	return []models.DeclarationItem{
		{LogicalField: models.FieldIncomeTotal, Value: decimal.RequireFromString("1000000")},
		{LogicalField: models.FieldTaxableIncome, Value: decimal.RequireFromString("800000")},
		{LogicalField: models.FieldIPNCalculated, Value: decimal.RequireFromString("80000")},
		{LogicalField: models.FieldIPNPayable, Value: decimal.RequireFromString("80000")},
	}
}

func fixtureFieldMaps() []models.XmlFieldMap {
	return []models.XmlFieldMap{
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "iin", Position: 1},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "period_year", Position: 2},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "fio1", Position: 3},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "dt_main", Position: 4},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "dt_regular", Position: 5},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "pril_1", Position: 6},
		{FormCode: "270.00", ApplicationCode: "page_270_00_01", XmlFieldName: "pril_2", Position: 7},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldIncomePropertyTotal), XmlFieldName: "field_270_01_A", Position: 1},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldIncomeTotal), XmlFieldName: "field_270_01_D", Position: 2},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldDeductionTotal), XmlFieldName: "field_270_01_F", Position: 3},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldTaxableIncome), XmlFieldName: "field_270_01_G", Position: 4},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldIPNCalculated), XmlFieldName: "field_270_01_H", Position: 5},
		{FormCode: "270.01", ApplicationCode: "page_270_01_01", LogicalField: strPtr(models.FieldIPNPayable), XmlFieldName: "field_270_01_K", Position: 6},
	}
}

func TestProjectDeterministicHash(t *testing.T) {
	decl := fixtureDeclaration(t)
	items := fixtureItems()
	maps := fixtureFieldMaps()

	payload1, hash1, err := Project(decl, items, maps)
	require.NoError(t, err)
	payload2, hash2, err := Project(decl, items, maps)
	require.NoError(t, err)

	assert.Equal(t, payload1, payload2)
	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 64)
}

func TestProjectStructure(t *testing.T) {
	decl := fixtureDeclaration(t)
	payload, _, err := Project(decl, fixtureItems(), fixtureFieldMaps())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, payload, `<fno xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" code="270.00" formatVersion="1" version="2">`)

	// all eight forms appear even when only two carry fields
	for _, form := range []string{
		"form_270_00", "form_270_01", "form_270_02", "form_270_03",
		"form_270_04", "form_270_05", "form_270_06", "form_270_07",
	} {
		assert.Contains(t, payload, `<form name="`+form+`">`)
	}
	// forms without mapped fields render an empty sheet
	assert.Contains(t, payload, "<sheet/>")

	// header fields
	assert.Contains(t, payload, `<field name="iin">900101300123</field>`)
	assert.Contains(t, payload, `<field name="period_year">2024</field>`)
	assert.Contains(t, payload, `<field name="fio1">Aliyeva</field>`)

	// kind checkboxes: exactly the declared kind is ticked
	assert.Contains(t, payload, `<field name="dt_main">1</field>`)
	assert.Contains(t, payload, `<field name="dt_regular"/>`)

	// appendix toggles follow flags
	assert.Contains(t, payload, `<field name="pril_1">1</field>`)
	assert.Contains(t, payload, `<field name="pril_2"/>`)

	// money fields
	assert.Contains(t, payload, `<field name="field_270_01_D">1000000</field>`)
	assert.Contains(t, payload, `<field name="field_270_01_G">800000</field>`)
	assert.Contains(t, payload, `<field name="field_270_01_H">80000</field>`)
	// absent logical fields render as empty elements
	assert.Contains(t, payload, `<field name="field_270_01_A"/>`)
	assert.Contains(t, payload, `<field name="field_270_01_F"/>`)
}

func TestProjectFieldOrderFollowsPositions(t *testing.T) {
	decl := fixtureDeclaration(t)
	payload, _, err := Project(decl, fixtureItems(), fixtureFieldMaps())
	require.NoError(t, err)

	iin := strings.Index(payload, `name="iin"`)
	year := strings.Index(payload, `name="period_year"`)
	fio := strings.Index(payload, `name="fio1"`)
	require.True(t, iin >= 0 && year >= 0 && fio >= 0)
	assert.Less(t, iin, year)
	assert.Less(t, year, fio)
}

func TestProjectEscapesHeaderText(t *testing.T) {
	decl := fixtureDeclaration(t)
	decl.LastName = `O'Neil & <Sons>"`

	payload, _, err := Project(decl, fixtureItems(), fixtureFieldMaps())
	require.NoError(t, err)

	assert.Contains(t, payload, `<field name="fio1">O&apos;Neil &amp; &lt;Sons&gt;&quot;</field>`)
	assert.NotContains(t, payload, `O'Neil & <Sons>`)
}

func TestProjectHashChangesWithValues(t *testing.T) {
	decl := fixtureDeclaration(t)
	items := fixtureItems()
	maps := fixtureFieldMaps()

	_, before, err := Project(decl, items, maps)
	require.NoError(t, err)

	items[0].Value = decimal.RequireFromString("1000001")
	_, after, err := Project(decl, items, maps)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", ""},
		{"0.004", ""},
		{"1", "1"},
		{"1000000", "1000000"},
		{"123.4", "123"},
		{"123.5", "124"},
		{"-123.5", "-124"},
		{"80000.00", "80000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), "FormatMoney(%s)", tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 8, 20, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "20.08.2024", FormatDate(d))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a&amp;b&lt;c&gt;d&quot;e&apos;f", Escape(`a&b<c>d"e'f`))
	assert.Equal(t, "plain", Escape("plain"))
}
