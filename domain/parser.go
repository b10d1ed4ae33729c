package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldCount is the number of pipe-delimited fields in every scanned code
const FieldCount = 7

const fieldSeparator = "|"

// Parse decodes a raw scan with the given schema
func Parse(schema Schema, raw string, now time.Time) (ScannedLine, error) {
	fields := strings.Split(raw, fieldSeparator)
	if len(fields) != FieldCount {
		return ScannedLine{}, &FormatError{Raw: raw, Fields: len(fields)}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	volume, err := parseVolume(fields[2])
	if err != nil {
		return ScannedLine{}, err
	}

	line := ScannedLine{
		ID:               uuid.New().String(),
		Schema:           schema,
		RawCode:          raw,
		InvoiceNumber:    fields[1],
		Volume:           volume,
		DestinationCode:  fields[3],
		Supplier:         fields[4],
		FinalDestination: fields[5],
		CargoType:        fields[6],
		ScannedAt:        now,
		Status:           LineValid,
	}

	switch schema {
	case SchemaPacking:
		line.Code = fields[0]
	case SchemaReceiving:
		line.Date = fields[0]
	default:
		return ScannedLine{}, &FormatError{Raw: raw, Fields: len(fields)}
	}

	return line, nil
}

// ParsePacking decodes code|invoiceNumber|volume|destinationCode|supplier|finalDestination|cargoType
func ParsePacking(raw string, now time.Time) (ScannedLine, error) {
	return Parse(SchemaPacking, raw, now)
}

// ParseReceiving decodes date|invoiceNumber|volume|destination|supplier|clientDestination|cargoType
func ParseReceiving(raw string, now time.Time) (ScannedLine, error) {
	return Parse(SchemaReceiving, raw, now)
}

func parseVolume(value string) (int, error) {
	if value == "" {
		return 0, &InvalidVolumeError{Value: value}
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, &InvalidVolumeError{Value: value}
		}
	}
	volume, err := strconv.Atoi(value)
	if err != nil || volume <= 0 {
		return 0, &InvalidVolumeError{Value: value}
	}
	return volume, nil
}

// RejectedLine records a scan that failed to parse so it stays visible to the operator
func RejectedLine(schema Schema, raw string, parseErr error, now time.Time) ScannedLine {
	line := ScannedLine{
		ID:        uuid.New().String(),
		Schema:    schema,
		RawCode:   raw,
		ScannedAt: now,
		Status:    LineFormatError,
	}

	switch e := parseErr.(type) {
	case *InvalidVolumeError:
		if fields := strings.Split(raw, fieldSeparator); len(fields) == FieldCount {
			line.InvoiceNumber = strings.TrimSpace(fields[1])
			line.FinalDestination = strings.TrimSpace(fields[5])
		}
		return line.withOutcome(LineInvalidVolume, e)
	case *FormatError:
		return line.withOutcome(LineFormatError, e)
	case KindError:
		return line.withOutcome(LineInvalid, e)
	}

	line.Status = LineInvalid
	if parseErr != nil {
		line.ErrorDetail = parseErr.Error()
	}
	return line
}
