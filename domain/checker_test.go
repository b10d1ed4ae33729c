package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReceivedLookup struct {
	mock.Mock
}

func (m *MockReceivedLookup) IsInvoiceReceived(ctx context.Context, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

type MockReportedLookup struct {
	mock.Mock
}

func (m *MockReportedLookup) FindReportedInvoice(ctx context.Context, invoiceNumber string) (*ReportedInvoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReportedInvoice), args.Error(1)
}

func mustPacking(t *testing.T, raw string) ScannedLine {
	t.Helper()
	line, err := ParsePacking(raw, scanTime)
	require.NoError(t, err)
	return line
}

func mustReceiving(t *testing.T, raw string) ScannedLine {
	t.Helper()
	line, err := ParseReceiving(raw, scanTime)
	require.NoError(t, err)
	return line
}

func newTestCart(t *testing.T) *CartAggregate {
	t.Helper()
	cart, err := NewCart("cart-1", "embalagem_ana_2025-03-14_A", "Carro 1")
	require.NoError(t, err)
	return cart
}

func TestCheckAcceptsReceivedInvoice(t *testing.T) {
	received := new(MockReceivedLookup)
	received.On("IsInvoiceReceived", mock.Anything, "000001").Return(true, nil)

	checker := NewChecker(received, new(MockReportedLookup))
	outcome, err := checker.Check(context.Background(), mustPacking(t, "COD1|000001|10|RJ08|ACME|SAO PAULO|ROD"), newTestCart(t))

	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome.Kind)
	assert.Equal(t, LineValid, outcome.Line.Status)
	assert.Nil(t, outcome.Err)
	received.AssertExpectations(t)
}

func TestCheckDuplicateRawCodeComesFirst(t *testing.T) {
	cart := newTestCart(t)
	first := mustPacking(t, "COD1|000001|10|RJ08|ACME|SAO PAULO|ROD")
	require.NoError(t, cart.AddLine(RoleOperator, first))

	received := new(MockReceivedLookup)
	checker := NewChecker(received, new(MockReportedLookup))

	second, err := ParsePacking("COD1|000001|10|RJ08|ACME|SAO PAULO|ROD", scanTime.Add(time.Minute))
	require.NoError(t, err)
	outcome, err := checker.Check(context.Background(), second, cart)
	require.NoError(t, err)

	assert.Equal(t, Rejected, outcome.Kind)
	assert.Equal(t, LineDuplicate, outcome.Line.Status)
	var dup *DuplicateInCartError
	require.ErrorAs(t, outcome.Err, &dup)
	assert.Equal(t, first.ScannedAt, dup.OriginalAt)
	assert.Equal(t, first.ID, dup.OriginalRef)

	// the receiving gate is never consulted for duplicates
	received.AssertNotCalled(t, "IsInvoiceReceived", mock.Anything, mock.Anything)
	assert.Len(t, cart.Lines(), 1)
}

func TestCheckSameInvoiceDifferentCodeIsNotDuplicate(t *testing.T) {
	cart := newTestCart(t)
	require.NoError(t, cart.AddLine(RoleOperator, mustPacking(t, "COD1|000001|10|RJ08|ACME|SAO PAULO|ROD")))

	received := new(MockReceivedLookup)
	received.On("IsInvoiceReceived", mock.Anything, "000001").Return(true, nil)
	checker := NewChecker(received, new(MockReportedLookup))

	outcome, err := checker.Check(context.Background(), mustPacking(t, "COD2|000001|5|RJ08|ACME|SAO PAULO|ROD"), cart)
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome.Kind)
}

func TestCheckPackingRequiresReceivedInvoice(t *testing.T) {
	received := new(MockReceivedLookup)
	received.On("IsInvoiceReceived", mock.Anything, "000777").Return(false, nil)
	checker := NewChecker(received, new(MockReportedLookup))

	outcome, err := checker.Check(context.Background(), mustPacking(t, "COD7|000777|1|RJ08|ACME|SAO PAULO|ROD"), newTestCart(t))
	require.NoError(t, err)

	assert.Equal(t, Rejected, outcome.Kind)
	assert.Equal(t, LineInvalid, outcome.Line.Status)
	var notFound *ReceivingNotFoundError
	require.ErrorAs(t, outcome.Err, &notFound)
	assert.Equal(t, "000777", notFound.InvoiceNumber)
	assert.Equal(t, KindReceivingNotFound, outcome.Line.ErrorKind)
}

func TestCheckReceivingRejectsAlreadyReported(t *testing.T) {
	finalized := time.Date(2025, 3, 13, 18, 0, 0, 0, time.UTC)
	reported := new(MockReportedLookup)
	reported.On("FindReportedInvoice", mock.Anything, "000068310").Return(&ReportedInvoice{
		InvoiceNumber: "000068310",
		ReportID:      "r-1",
		ReportName:    "TRANSPORTADORA X",
		Collaborators: []string{"Ana", "Bruno"},
		FinalizedAt:   finalized,
	}, nil)
	received := new(MockReceivedLookup)
	checker := NewChecker(received, reported)

	outcome, err := checker.Check(context.Background(), mustReceiving(t, "45868|000068310|0014|RJ08|EMS S/A|SAO JO|ROD"), NewNotebook("k"))
	require.NoError(t, err)

	assert.Equal(t, Rejected, outcome.Kind)
	var already *AlreadyReportedError
	require.ErrorAs(t, outcome.Err, &already)
	assert.Equal(t, "TRANSPORTADORA X", already.ReportName)
	assert.Equal(t, []string{"Ana", "Bruno"}, already.Collaborators)
	assert.Equal(t, finalized, already.FinalizedAt)
	received.AssertNotCalled(t, "IsInvoiceReceived", mock.Anything, mock.Anything)
}

func TestCheckReceivingAcceptsUnreported(t *testing.T) {
	reported := new(MockReportedLookup)
	reported.On("FindReportedInvoice", mock.Anything, "000068310").Return(nil, nil)
	checker := NewChecker(new(MockReceivedLookup), reported)

	notebook := NewNotebook("k")
	notebook.Add(mustReceiving(t, "45868|000011111|2|RJ08|EMS S/A|CAMPINAS|ROD"))

	outcome, err := checker.Check(context.Background(), mustReceiving(t, "45868|000068310|0014|RJ08|EMS S/A|SAO JO|ROD"), notebook)
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome.Kind, "notebooks are not bound to a single destination")
}

func TestCheckDestinationMismatchIsAcceptedWithWarning(t *testing.T) {
	cart := newTestCart(t)
	require.NoError(t, cart.AddLine(RoleOperator, mustPacking(t, "COD1|000001|10|RJ08|ACME|SAO PAULO|ROD")))

	received := new(MockReceivedLookup)
	received.On("IsInvoiceReceived", mock.Anything, mock.Anything).Return(true, nil)
	checker := NewChecker(received, new(MockReportedLookup))

	outcome, err := checker.Check(context.Background(), mustPacking(t, "COD2|000002|4|RJ08|ACME|CAMPINAS|ROD"), cart)
	require.NoError(t, err)

	assert.Equal(t, AcceptedWithWarning, outcome.Kind)
	assert.Equal(t, LineDestinationMismatch, outcome.Line.Status)
	var warn *DestinationMismatchWarning
	require.ErrorAs(t, outcome.Err, &warn)
	assert.Equal(t, "SAO PAULO", warn.Expected)
	assert.Equal(t, "CAMPINAS", warn.Got)

	outcome, err = checker.Check(context.Background(), mustPacking(t, "COD3|000003|4|RJ08|ACME|sao paulo|ROD"), cart)
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome.Kind, "destination comparison ignores case")
}

func TestCheckLookupFailureIsAnError(t *testing.T) {
	received := new(MockReceivedLookup)
	received.On("IsInvoiceReceived", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))
	checker := NewChecker(received, new(MockReportedLookup))

	_, err := checker.Check(context.Background(), mustPacking(t, "COD1|000001|10|RJ08|ACME|SAO PAULO|ROD"), newTestCart(t))
	require.EqualError(t, err, "connection reset")
}
