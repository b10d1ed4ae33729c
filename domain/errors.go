package domain

import (
	"fmt"
	"strings"
	"time"
)

// Error kinds exposed to API clients
const (
	KindFormat              = "FORMAT_ERROR"
	KindInvalidVolume       = "INVALID_VOLUME"
	KindDuplicateInCart     = "DUPLICATE_IN_CART"
	KindReceivingNotFound   = "RECEIVING_NOT_FOUND"
	KindAlreadyReported     = "ALREADY_REPORTED"
	KindDestinationMismatch = "DESTINATION_MISMATCH"
	KindDivergencePresent   = "DIVERGENCE_PRESENT"
	KindPermissionDenied    = "PERMISSION_DENIED"
	KindEmptyReport         = "EMPTY_REPORT"
	KindNotFound            = "NOT_FOUND"
	KindDuplicateName       = "DUPLICATE_NAME"
	KindInvalidTransition   = "INVALID_TRANSITION"
	KindWrongArea           = "WRONG_AREA"
	KindInvalidSession      = "INVALID_SESSION"
	KindInvalidReport       = "INVALID_REPORT"
)

// KindError is implemented by every domain error
type KindError interface {
	error
	Kind() string
}

// FormatError is returned when a scan does not split into the expected fields
type FormatError struct {
	Raw    string
	Fields int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid code format: expected %d fields separated by '|', got %d", FieldCount, e.Fields)
}

func (e *FormatError) Kind() string { return KindFormat }

// InvalidVolumeError is returned when the volume field is not a positive integer
type InvalidVolumeError struct {
	Value string
}

func (e *InvalidVolumeError) Error() string {
	return fmt.Sprintf("invalid volume %q: must be a positive integer", e.Value)
}

func (e *InvalidVolumeError) Kind() string { return KindInvalidVolume }

// DuplicateInCartError is returned when the same raw code was already scanned
type DuplicateInCartError struct {
	RawCode     string
	OriginalAt  time.Time
	OriginalRef string
}

func (e *DuplicateInCartError) Error() string {
	return fmt.Sprintf("code already scanned at %s", e.OriginalAt.Format("02/01/2006 15:04:05"))
}

func (e *DuplicateInCartError) Kind() string { return KindDuplicateInCart }

// ReceivingNotFoundError is returned when a packing scan references an invoice not yet received
type ReceivingNotFoundError struct {
	InvoiceNumber string
}

func (e *ReceivingNotFoundError) Error() string {
	return fmt.Sprintf("invoice %s was not found in receiving", e.InvoiceNumber)
}

func (e *ReceivingNotFoundError) Kind() string { return KindReceivingNotFound }

// AlreadyReportedError is returned when a receiving scan references an invoice in a finalized report
type AlreadyReportedError struct {
	InvoiceNumber string
	ReportName    string
	Collaborators []string
	FinalizedAt   time.Time
}

func (e *AlreadyReportedError) Error() string {
	return fmt.Sprintf("invoice %s already reported in %q by %s at %s",
		e.InvoiceNumber, e.ReportName, strings.Join(e.Collaborators, ", "),
		e.FinalizedAt.Format("02/01/2006 15:04"))
}

func (e *AlreadyReportedError) Kind() string { return KindAlreadyReported }

// DestinationMismatchWarning flags a line whose final destination differs from the cart's
type DestinationMismatchWarning struct {
	Expected string
	Got      string
}

func (e *DestinationMismatchWarning) Error() string {
	return fmt.Sprintf("destination %s differs from cart destination %s", e.Got, e.Expected)
}

func (e *DestinationMismatchWarning) Kind() string { return KindDestinationMismatch }

// DivergencePresentError blocks release and packing of a cart
type DivergencePresentError struct {
	CartID     string
	Divergent  int
	ValidLines int
}

func (e *DivergencePresentError) Error() string {
	if e.ValidLines == 0 {
		return fmt.Sprintf("cart %s has no valid lines", e.CartID)
	}
	return fmt.Sprintf("cart %s has %d divergent line(s)", e.CartID, e.Divergent)
}

func (e *DivergencePresentError) Kind() string { return KindDivergencePresent }

// PermissionDeniedError is returned when the caller's role may not perform an operation
type PermissionDeniedError struct {
	Action string
	Status CartStatus
}

func (e *PermissionDeniedError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("permission denied: %s requires administrator", e.Action)
	}
	return fmt.Sprintf("permission denied: cannot %s while cart is %s", e.Action, e.Status)
}

func (e *PermissionDeniedError) Kind() string { return KindPermissionDenied }

// EmptyReportError is returned when finalizing a session with no notes
type EmptyReportError struct {
	SessionKey string
}

func (e *EmptyReportError) Error() string {
	return fmt.Sprintf("session %s has no notes to report", e.SessionKey)
}

func (e *EmptyReportError) Kind() string { return KindEmptyReport }

// NotFoundError is returned when a cart, line, note or report does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Kind() string { return KindNotFound }

// DuplicateNameError is returned when a cart name is already taken in the session
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a cart named %q already exists in this session", e.Name)
}

func (e *DuplicateNameError) Kind() string { return KindDuplicateName }

// InvalidTransitionError is returned when an operation is not allowed from the current status
type InvalidTransitionError struct {
	Action string
	From   CartStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.From == "" {
		return "cannot " + e.Action
	}
	return fmt.Sprintf("cannot %s a cart in status %s", e.Action, e.From)
}

func (e *InvalidTransitionError) Kind() string { return KindInvalidTransition }

// WrongAreaError is returned when an operation belongs to another work area
type WrongAreaError struct {
	Action string
	Area   Area
}

func (e *WrongAreaError) Error() string {
	return fmt.Sprintf("cannot %s from area %s", e.Action, e.Area)
}

func (e *WrongAreaError) Kind() string { return KindWrongArea }

// InvalidSessionError is returned when login data breaks a session invariant
type InvalidSessionError struct {
	Field  string
	Reason string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session %s: %s", e.Field, e.Reason)
}

func (e *InvalidSessionError) Kind() string { return KindInvalidSession }

// InvalidReportError is returned when a report cannot be named as requested
type InvalidReportError struct {
	Reason string
}

func (e *InvalidReportError) Error() string {
	return "invalid report: " + e.Reason
}

func (e *InvalidReportError) Kind() string { return KindInvalidReport }
