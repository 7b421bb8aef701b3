package seed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/engine"
)

func TestCatalogRulesCompile(t *testing.T) {
	rules := catalogRules()
	compiled, err := engine.CompileRules(rules)
	require.NoError(t, err)
	assert.Len(t, compiled, len(rules))
}

func TestCatalogRuleCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range catalogRules() {
		assert.False(t, seen[r.RuleCode], "duplicate rule code %s", r.RuleCode)
		seen[r.RuleCode] = true
	}
}

func TestEveryEventTypeHasExactlyOneMappingRule(t *testing.T) {
	mapped := make(map[string]int)
	for _, pair := range eventFieldPairs {
		mapped[pair.event]++
	}
	for _, et := range catalogEventTypes() {
		assert.Equal(t, 1, mapped[et.Code], "event type %s", et.Code)
		delete(mapped, et.Code)
	}
	assert.Empty(t, mapped, "mapping rules for event types missing from the catalog")
}

func TestMappingTargetsExistInCatalog(t *testing.T) {
	fields := make(map[string]bool)
	for _, lf := range catalogLogicalFields() {
		fields[lf.Code] = true
	}
	for _, pair := range eventFieldPairs {
		assert.True(t, fields[pair.field], "mapping target %s missing from the catalog", pair.field)
	}
}

func TestFieldMapReferencesExist(t *testing.T) {
	fields := make(map[string]bool)
	for _, lf := range catalogLogicalFields() {
		fields[lf.Code] = true
	}
	names := make(map[string]bool)
	for _, row := range fieldMapRows {
		require.NotEmpty(t, row.form)
		require.NotEmpty(t, row.app)
		require.NotEmpty(t, row.name)

		key := row.app + "/" + row.name
		assert.False(t, names[key], "duplicate xml field %s", key)
		names[key] = true

		if row.lf != "" {
			assert.True(t, fields[row.lf], "xml field %s references unknown logical field %s", row.name, row.lf)
		}
	}
}

func TestFieldMapPositionsAreTotalPerForm(t *testing.T) {
	seen := make(map[string]bool)
	for _, row := range fieldMapRows {
		key := fmt.Sprintf("%s#%d", row.form, row.pos)
		assert.False(t, seen[key], "form %s reuses position %d", row.form, row.pos)
		seen[key] = true
	}
}
