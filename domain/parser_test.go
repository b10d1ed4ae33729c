package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestParsePacking(t *testing.T) {
	line, err := ParsePacking("COD123|000068310|14|RJ08|EMS S/A|SAO JOSE|ROD", scanTime)
	require.NoError(t, err)

	assert.Equal(t, SchemaPacking, line.Schema)
	assert.Equal(t, "COD123", line.Code)
	assert.Equal(t, "000068310", line.InvoiceNumber)
	assert.Equal(t, 14, line.Volume)
	assert.Equal(t, "RJ08", line.DestinationCode)
	assert.Equal(t, "EMS S/A", line.Supplier)
	assert.Equal(t, "SAO JOSE", line.FinalDestination)
	assert.Equal(t, "ROD", line.CargoType)
	assert.Equal(t, LineValid, line.Status)
	assert.Equal(t, scanTime, line.ScannedAt)
	assert.NotEmpty(t, line.ID)
}

func TestParseReceiving(t *testing.T) {
	line, err := ParseReceiving("45868|000068310|0014|RJ08|EMS S/A|SAO JO|ROD", scanTime)
	require.NoError(t, err)

	assert.Equal(t, SchemaReceiving, line.Schema)
	assert.Equal(t, "45868", line.Date)
	assert.Empty(t, line.Code)
	assert.Equal(t, 14, line.Volume)
	assert.Equal(t, "SAO JO", line.FinalDestination)
	assert.Equal(t, "45868|000068310|0014|RJ08|EMS S/A|SAO JO|ROD", line.RawCode)
}

func TestParseFieldCount(t *testing.T) {
	for n := 0; n <= 12; n++ {
		if n == FieldCount {
			continue
		}
		fields := make([]string, n)
		for i := range fields {
			fields[i] = "1"
		}
		raw := strings.Join(fields, "|")

		for _, schema := range []Schema{SchemaPacking, SchemaReceiving} {
			_, err := Parse(schema, raw, scanTime)
			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr, "fields=%d schema=%s", n, schema)
			assert.Equal(t, KindFormat, formatErr.Kind())
		}
	}
}

func TestParseInvalidVolume(t *testing.T) {
	cases := []string{"0", "000", "-3", "abc", "", " ", "1.5", "+2", "7x", "99999999999999999999999"}

	for _, volume := range cases {
		raw := "COD1|000001|" + volume + "|RJ08|ACME|SAO PAULO|ROD"
		_, err := ParsePacking(raw, scanTime)

		var volErr *InvalidVolumeError
		require.ErrorAs(t, err, &volErr, "volume=%q", volume)
	}
}

func TestParseTrimsFieldsButKeepsRawCode(t *testing.T) {
	raw := " COD1 | 000001 | 3 |RJ08| ACME |SAO PAULO |ROD "
	line, err := ParsePacking(raw, scanTime)
	require.NoError(t, err)

	assert.Equal(t, "COD1", line.Code)
	assert.Equal(t, "000001", line.InvoiceNumber)
	assert.Equal(t, 3, line.Volume)
	assert.Equal(t, raw, line.RawCode)
}

func TestRejectedLine(t *testing.T) {
	raw := "COD1|000001|0|RJ08|ACME|SAO PAULO|ROD"
	_, err := ParsePacking(raw, scanTime)
	require.Error(t, err)

	line := RejectedLine(SchemaPacking, raw, err, scanTime)
	assert.Equal(t, LineInvalidVolume, line.Status)
	assert.Equal(t, KindInvalidVolume, line.ErrorKind)
	assert.Equal(t, "000001", line.InvoiceNumber)
	assert.Equal(t, raw, line.RawCode)
	assert.True(t, line.Divergent())

	raw = "only|three|fields"
	_, err = ParsePacking(raw, scanTime)
	line = RejectedLine(SchemaPacking, raw, err, scanTime)
	assert.Equal(t, LineFormatError, line.Status)
	assert.Equal(t, KindFormat, line.ErrorKind)
	assert.Equal(t, raw, line.RawCode)
	assert.Zero(t, line.Volume)
}

func TestRejectedLineVolumeErrorOnShortCode(t *testing.T) {
	raw := "COD1|0"
	line := RejectedLine(SchemaPacking, raw, &InvalidVolumeError{Value: "0"}, scanTime)

	assert.Equal(t, LineInvalidVolume, line.Status)
	assert.Equal(t, KindInvalidVolume, line.ErrorKind)
	assert.Empty(t, line.InvoiceNumber)
	assert.Empty(t, line.FinalDestination)
	assert.Equal(t, raw, line.RawCode)
}
