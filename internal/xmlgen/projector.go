package xmlgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// formCodes fixes the eight form blocks and their emission order
var formCodes = []string{
	"270.00", "270.01", "270.02", "270.03",
	"270.04", "270.05", "270.06", "270.07",
}

// Project serializes a declaration into the regulator's fno tree and returns
// the payload with its SHA-256 content hash. Identical inputs produce
// identical bytes: fields emit in field-map position order and no wall-clock
// value enters the document.
func Project(decl *models.Declaration, items []models.DeclarationItem, fieldMaps []models.XmlFieldMap) (string, string, error) {
	values := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		values[it.LogicalField] = it.Value
	}

	flags, err := decl.FlagMap()
	if err != nil {
		return "", "", fmt.Errorf("failed to read flags: %w", err)
	}

	byForm := make(map[string][]models.XmlFieldMap, len(formCodes))
	for _, m := range fieldMaps {
		byForm[m.FormCode] = append(byForm[m.FormCode], m)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<fno xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" code="270.00" formatVersion="1" version="2">` + "\n")

	for _, code := range formCodes {
		writeForm(&b, code, byForm[code], decl, values, flags)
	}

	b.WriteString("</fno>\n")
	payload := b.String()

	if err := selfCheck(payload); err != nil {
		return "", "", err
	}

	sum := sha256.Sum256([]byte(payload))
	return payload, hex.EncodeToString(sum[:]), nil
}

func writeForm(b *strings.Builder, formCode string, maps []models.XmlFieldMap, decl *models.Declaration, values map[string]decimal.Decimal, flags map[string]bool) {
	name := "form_" + strings.ReplaceAll(formCode, ".", "_")
	fmt.Fprintf(b, "  <form name=\"%s\">\n", Escape(name))

	sort.SliceStable(maps, func(i, j int) bool {
		if maps[i].Position != maps[j].Position {
			return maps[i].Position < maps[j].Position
		}
		return maps[i].XmlFieldName < maps[j].XmlFieldName
	})

	// sheets appear in order of their first field
	var sheetOrder []string
	sheetFields := make(map[string][]models.XmlFieldMap)
	for _, m := range maps {
		if _, ok := sheetFields[m.ApplicationCode]; !ok {
			sheetOrder = append(sheetOrder, m.ApplicationCode)
		}
		sheetFields[m.ApplicationCode] = append(sheetFields[m.ApplicationCode], m)
	}

	if len(sheetOrder) == 0 {
		b.WriteString("    <sheet/>\n")
	}
	for _, app := range sheetOrder {
		fmt.Fprintf(b, "    <sheet name=\"%s\">\n", Escape(app))
		for _, m := range sheetFields[app] {
			writeField(b, m, decl, values, flags)
		}
		b.WriteString("    </sheet>\n")
	}

	b.WriteString("  </form>\n")
}

func writeField(b *strings.Builder, m models.XmlFieldMap, decl *models.Declaration, values map[string]decimal.Decimal, flags map[string]bool) {
	var content string
	if m.LogicalField != nil {
		content = FormatMoney(values[*m.LogicalField])
	} else {
		content = headerValue(m.XmlFieldName, decl, flags)
	}

	if content == "" {
		fmt.Fprintf(b, "      <field name=\"%s\"/>\n", Escape(m.XmlFieldName))
		return
	}
	fmt.Fprintf(b, "      <field name=\"%s\">%s</field>\n", Escape(m.XmlFieldName), Escape(content))
}

// headerValue fills fields that come from the declaration itself rather than
// computed items
func headerValue(fieldName string, decl *models.Declaration, flags map[string]bool) string {
	switch fieldName {
	case "iin":
		return decl.IIN
	case "period_year":
		return fmt.Sprintf("%d", decl.TaxYear)
	case "fio1":
		return decl.LastName
	case "fio2":
		return decl.FirstName
	case "fio3":
		return decl.MiddleName
	case "email":
		return decl.Email
	case "payer_phone_number":
		return decl.Phone
	case "spouse_iin":
		return decl.SpouseIIN
	case "legal_rep_iin":
		return decl.LegalRepIIN
	case "dt_main":
		return checkbox(decl.Kind == models.DeclarationKindMain)
	case "dt_regular":
		return checkbox(decl.Kind == models.DeclarationKindRegular)
	case "dt_additional":
		return checkbox(decl.Kind == models.DeclarationKindAdditional)
	case "dt_notice":
		return checkbox(decl.Kind == models.DeclarationKindNotice)
	}
	if strings.HasPrefix(fieldName, "pril_") {
		return checkbox(flags[fieldName])
	}
	return ""
}

func checkbox(set bool) string {
	if set {
		return "1"
	}
	return ""
}

// FormatMoney renders a decimal as the nearest integer in ASCII digits; zero
// renders empty so the element collapses to a placeholder.
func FormatMoney(v decimal.Decimal) string {
	rounded := v.Round(0)
	if rounded.IsZero() {
		return ""
	}
	return rounded.String()
}

// FormatDate renders a date the way the regulator expects
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// Escape substitutes the five XML-special characters
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// selfCheck guards against a structurally broken document leaving the
// projector
func selfCheck(payload string) error {
	switch {
	case !strings.HasPrefix(payload, "<?xml"):
		return apperr.Internal(nil, "projected XML lacks declaration header")
	case !strings.Contains(payload, "<fno"):
		return apperr.Internal(nil, "projected XML lacks fno root")
	case !strings.Contains(payload, "form_270_00"):
		return apperr.Internal(nil, "projected XML lacks form_270_00")
	case !strings.Contains(payload, "form_270_01"):
		return apperr.Internal(nil, "projected XML lacks form_270_01")
	}
	return nil
}
