package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagMapRoundTrip(t *testing.T) {
	var d Declaration

	flags, err := d.FlagMap()
	require.NoError(t, err)
	assert.Empty(t, flags)

	require.NoError(t, d.SetFlagMap(map[string]bool{"pril_1": true, "pril_2": false}))
	flags, err = d.FlagMap()
	require.NoError(t, err)
	assert.True(t, flags["pril_1"])
	assert.False(t, flags["pril_2"])
}

func TestMergeFlagsKeepsExisting(t *testing.T) {
	var d Declaration
	require.NoError(t, d.SetFlagMap(map[string]bool{"has_income": true, "pril_1": true}))

	require.NoError(t, d.MergeFlags(map[string]bool{"pril_1": false, "pril_3": true}))

	flags, err := d.FlagMap()
	require.NoError(t, err)
	assert.True(t, flags["has_income"])
	assert.False(t, flags["pril_1"])
	assert.True(t, flags["pril_3"])
}

func TestFlagMapRejectsMalformedColumn(t *testing.T) {
	d := Declaration{Flags: JSONB(`[1, 2]`)}
	_, err := d.FlagMap()
	assert.Error(t, err)
}

func TestSnapshotHeader(t *testing.T) {
	tp := &Taxpayer{
		IIN:        "900101300123",
		LastName:   "Aliyeva",
		FirstName:  "Dana",
		MiddleName: "Serikovna",
		Phone:      "+77010000000",
		Email:      "dana@example.kz",
	}
	var d Declaration
	d.SnapshotHeader(tp)

	assert.Equal(t, tp.IIN, d.IIN)
	assert.Equal(t, tp.LastName, d.LastName)
	assert.Equal(t, tp.FirstName, d.FirstName)
	assert.Equal(t, tp.MiddleName, d.MiddleName)
	assert.Equal(t, tp.Phone, d.Phone)
	assert.Equal(t, tp.Email, d.Email)
}

func TestValidIIN(t *testing.T) {
	assert.True(t, ValidIIN("900101300123"))
	assert.False(t, ValidIIN(""))
	assert.False(t, ValidIIN("90010130012"))
	assert.False(t, ValidIIN("9001013001234"))
	assert.False(t, ValidIIN("90010130012a"))
	assert.False(t, ValidIIN("900101 00123"))
}
