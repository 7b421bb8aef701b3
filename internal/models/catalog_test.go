package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidLogicalFieldCode(t *testing.T) {
	assert.True(t, ValidLogicalFieldCode("LF_INCOME_TOTAL"))
	assert.True(t, ValidLogicalFieldCode("LF_A"))
	assert.False(t, ValidLogicalFieldCode("lf_income_total"))
	assert.False(t, ValidLogicalFieldCode("LF_income"))
	assert.False(t, ValidLogicalFieldCode("INCOME_TOTAL"))
	assert.False(t, ValidLogicalFieldCode("LF_"))
	assert.False(t, ValidLogicalFieldCode(""))
}

func TestValidEventTypeCode(t *testing.T) {
	assert.True(t, ValidEventTypeCode("EV_FOREIGN_DIVIDENDS"))
	assert.False(t, ValidEventTypeCode("EV_270"))
	assert.False(t, ValidEventTypeCode("FOREIGN_DIVIDENDS"))
	assert.False(t, ValidEventTypeCode(""))
}

func TestValidRuleKind(t *testing.T) {
	for _, k := range []RuleKind{RuleKindMapping, RuleKindExclusion, RuleKindCalculation, RuleKindFlag} {
		assert.True(t, ValidRuleKind(k), "kind %s", k)
	}
	assert.False(t, ValidRuleKind(RuleKind("DERIVED")))
	assert.False(t, ValidRuleKind(RuleKind("")))
}
