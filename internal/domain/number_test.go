package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberAcceptsNumbersStringsAndBlanks(t *testing.T) {
	var req struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": " 7000 ", "c": "", "d": null}`), &req))

	assert.Equal(t, "12.5", req.A.String())
	assert.Equal(t, "7000", req.B.String())
	assert.True(t, req.C.IsZero())
	assert.True(t, req.D.IsZero())
}

func TestNumberRejectsGarbage(t *testing.T) {
	var n Number
	err := json.Unmarshal([]byte(`"dua"`), &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dua")
}

func TestNumberRejectsOutOfRangeValues(t *testing.T) {
	for _, raw := range []string{
		`"1e900000000"`,
		`1e900000000`,
		`"1e-900000000"`,
		`"0e900000000"`,
		`"1234567890123456789"`,
		`"0.0000000000000000001"`,
	} {
		var n Number
		err := json.Unmarshal([]byte(raw), &n)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "out of range", raw)
	}
}

func TestNumberAcceptsValuesAtTheBounds(t *testing.T) {
	for _, raw := range []string{`"123456789012345678"`, `"0.000000000000000001"`, `"-999999999999999999.5"`, `"1e17"`} {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(raw), &n), raw)
	}
	assert.True(t, InRange(MustNumber("25.123456").Decimal))
	assert.False(t, InRange(MustNumber("1e19").Decimal))
}

func TestNumberMarshalsAsDecimalString(t *testing.T) {
	payload, err := json.Marshal(map[string]Number{"qty": MustNumber("0.75")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":"0.75"}`, string(payload))
}

func TestParseDate(t *testing.T) {
	fallback := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got, err := ParseDate("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = ParseDate("2026-03-15", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2026-03-15T10:00:00+07:00", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("15/03/2026", fallback)
	assert.Error(t, err)
}
