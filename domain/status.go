package domain

import "fmt"

// CartStatus is the lifecycle status of a cart
type CartStatus string

const (
	CartAwaitingTaping CartStatus = "aguardando_colagem"
	CartInReview       CartStatus = "em_conferencia"
	CartReleased       CartStatus = "liberado"
	CartPacking        CartStatus = "embalando"
	CartCompleted      CartStatus = "finalizado"
)

// CartStatuses lists every cart status in lifecycle order
var CartStatuses = []CartStatus{
	CartAwaitingTaping,
	CartInReview,
	CartReleased,
	CartPacking,
	CartCompleted,
}

// Valid reports whether s is a known cart status
func (s CartStatus) Valid() bool {
	switch s {
	case CartAwaitingTaping, CartInReview, CartReleased, CartPacking, CartCompleted:
		return true
	}
	return false
}

// Label returns the operator-facing label of the status
func (s CartStatus) Label() string {
	switch s {
	case CartAwaitingTaping:
		return "Aguardando colagem"
	case CartInReview:
		return "Em conferência"
	case CartReleased:
		return "Liberado para embalagem"
	case CartPacking:
		return "Embalando"
	case CartCompleted:
		return "Finalizado"
	}
	panic(fmt.Sprintf("unknown cart status %q", string(s)))
}

// Editable reports whether lines may be added or removed in this status
func (s CartStatus) Editable() bool {
	switch s {
	case CartAwaitingTaping, CartInReview, CartReleased:
		return true
	case CartPacking, CartCompleted:
		return false
	}
	return false
}

// Locked reports whether the cart has left the working set
func (s CartStatus) Locked() bool {
	return s == CartPacking || s == CartCompleted
}

// LineStatus is the validation status of a scanned line
type LineStatus string

const (
	LineValid               LineStatus = "valid"
	LineDuplicate           LineStatus = "duplicate"
	LineFormatError         LineStatus = "format-error"
	LineInvalidVolume       LineStatus = "invalid-volume"
	LineDestinationMismatch LineStatus = "destination-mismatch"
	LineInvalid             LineStatus = "invalid"
)

// Valid reports whether s is a known line status
func (s LineStatus) Valid() bool {
	switch s {
	case LineValid, LineDuplicate, LineFormatError, LineInvalidVolume, LineDestinationMismatch, LineInvalid:
		return true
	}
	return false
}

// Divergent reports whether a line in this status blocks release and packing
func (s LineStatus) Divergent() bool {
	switch s {
	case LineValid:
		return false
	case LineDuplicate, LineFormatError, LineInvalidVolume, LineDestinationMismatch, LineInvalid:
		return true
	}
	return true
}

// Counted reports whether a line in this status contributes to aggregate volume
func (s LineStatus) Counted() bool {
	return s == LineValid || s == LineDestinationMismatch
}

// Severity maps the status to the indicator shown next to the line
func (s LineStatus) Severity() string {
	switch s {
	case LineValid:
		return "ok"
	case LineDestinationMismatch:
		return "warning"
	case LineDuplicate, LineFormatError, LineInvalidVolume, LineInvalid:
		return "error"
	}
	panic(fmt.Sprintf("unknown line status %q", string(s)))
}

// ReportStatus is the downstream status of a finalized report
type ReportStatus string

const (
	ReportFinalized ReportStatus = "finalizado"
	ReportLaunching ReportStatus = "em_lancamento"
	ReportLaunched  ReportStatus = "lancado"
)

// Valid reports whether s is a known report status
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportFinalized, ReportLaunching, ReportLaunched:
		return true
	}
	return false
}

// rank orders report statuses so transitions can be checked forward-only
func (s ReportStatus) rank() int {
	switch s {
	case ReportFinalized:
		return 0
	case ReportLaunching:
		return 1
	case ReportLaunched:
		return 2
	}
	return -1
}

// CanMoveTo reports whether the report may advance from s to next
func (s ReportStatus) CanMoveTo(next ReportStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() == s.rank()+1
}

// Area is the work area chosen at login
type Area string

const (
	AreaReceiving Area = "recebimento"
	AreaPacking   Area = "embalagem"
	AreaCosts     Area = "custos"
)

// Valid reports whether a is a known area
func (a Area) Valid() bool {
	switch a {
	case AreaReceiving, AreaPacking, AreaCosts:
		return true
	}
	return false
}

// Schema returns the scan schema used in the area
func (a Area) Schema() (Schema, bool) {
	switch a {
	case AreaReceiving:
		return SchemaReceiving, true
	case AreaPacking:
		return SchemaPacking, true
	case AreaCosts:
		return "", false
	}
	return "", false
}

// Shift is the work shift code
type Shift string

const (
	ShiftA Shift = "A"
	ShiftB Shift = "B"
	ShiftC Shift = "C"
)

// Valid reports whether s is a known shift
func (s Shift) Valid() bool {
	switch s {
	case ShiftA, ShiftB, ShiftC:
		return true
	}
	return false
}

// Role is the permission level of the caller
type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries administrative privileges
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Schema identifies the field layout of a scanned code
type Schema string

const (
	SchemaPacking   Schema = "packing"
	SchemaReceiving Schema = "receiving"
)

// Valid reports whether s is a known schema
func (s Schema) Valid() bool {
	switch s {
	case SchemaPacking, SchemaReceiving:
		return true
	}
	return false
}
