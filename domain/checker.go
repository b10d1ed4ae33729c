package domain

import (
	"context"
	"strings"
	"time"
)

// OutcomeKind classifies the verdict of a cross-reference check
type OutcomeKind string

const (
	Accepted            OutcomeKind = "accepted"
	AcceptedWithWarning OutcomeKind = "accepted_with_warning"
	Rejected            OutcomeKind = "rejected"
)

// Outcome is the checker's verdict for one candidate line
type Outcome struct {
	Kind OutcomeKind
	// Line is the candidate carrying the resulting status and message
	Line ScannedLine
	// Err is the rejection or warning, nil when fully accepted
	Err KindError
}

// ReportedInvoice locates an invoice inside a finalized report
type ReportedInvoice struct {
	InvoiceNumber string
	ReportID      string
	ReportName    string
	Collaborators []string
	FinalizedAt   time.Time
}

// ReceivedLookup answers whether an invoice was confirmed by the receiving stage
type ReceivedLookup interface {
	IsInvoiceReceived(ctx context.Context, invoiceNumber string) (bool, error)
}

// ReportedLookup finds the finalized report holding an invoice, nil when none
type ReportedLookup interface {
	FindReportedInvoice(ctx context.Context, invoiceNumber string) (*ReportedInvoice, error)
}

// Checker runs duplicate and cross-stage checks for scanned lines
type Checker struct {
	received ReceivedLookup
	reported ReportedLookup
}

// NewChecker creates a checker backed by the given lookups
func NewChecker(received ReceivedLookup, reported ReportedLookup) *Checker {
	return &Checker{
		received: received,
		reported: reported,
	}
}

// Check evaluates candidate against target without mutating either.
// The returned error is only set for lookup failures.
func (c *Checker) Check(ctx context.Context, candidate ScannedLine, target LineSet) (Outcome, error) {
	existing := target.Lines()

	if original, ok := findRawCode(existing, candidate.RawCode); ok {
		dupErr := &DuplicateInCartError{
			RawCode:     candidate.RawCode,
			OriginalAt:  original.ScannedAt,
			OriginalRef: original.ID,
		}
		return reject(candidate, LineDuplicate, dupErr), nil
	}

	switch candidate.Schema {
	case SchemaPacking:
		ok, err := c.received.IsInvoiceReceived(ctx, candidate.InvoiceNumber)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return reject(candidate, LineInvalid, &ReceivingNotFoundError{InvoiceNumber: candidate.InvoiceNumber}), nil
		}
	case SchemaReceiving:
		found, err := c.reported.FindReportedInvoice(ctx, candidate.InvoiceNumber)
		if err != nil {
			return Outcome{}, err
		}
		if found != nil {
			return reject(candidate, LineInvalid, &AlreadyReportedError{
				InvoiceNumber: candidate.InvoiceNumber,
				ReportName:    found.ReportName,
				Collaborators: found.Collaborators,
				FinalizedAt:   found.FinalizedAt,
			}), nil
		}
	}

	if target.DestinationBound() {
		if expected := destinationOf(existing); expected != "" && !sameDestination(expected, candidate.FinalDestination) {
			warn := &DestinationMismatchWarning{Expected: expected, Got: candidate.FinalDestination}
			return Outcome{
				Kind: AcceptedWithWarning,
				Line: candidate.withOutcome(LineDestinationMismatch, warn),
				Err:  warn,
			}, nil
		}
	}

	candidate.Status = LineValid
	return Outcome{Kind: Accepted, Line: candidate}, nil
}

func reject(candidate ScannedLine, status LineStatus, err KindError) Outcome {
	return Outcome{
		Kind: Rejected,
		Line: candidate.withOutcome(status, err),
		Err:  err,
	}
}

// findRawCode returns the first recorded line with the same raw code that is not itself a duplicate
func findRawCode(lines []ScannedLine, raw string) (ScannedLine, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Status != LineDuplicate && lines[i].RawCode == raw {
			return lines[i], true
		}
	}
	return ScannedLine{}, false
}

// destinationOf returns the final destination shared by the valid lines, oldest first
func destinationOf(lines []ScannedLine) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Status == LineValid {
			return lines[i].FinalDestination
		}
	}
	return ""
}

func sameDestination(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
