package domain

import "time"

// Divergence is an operator correction attached to a note
type Divergence struct {
	TypeCode       string `json:"tipo"`
	Description    string `json:"descricao"`
	InformedVolume int    `json:"volumeInformado"`
}

// ScannedLine is one decoded barcode event
type ScannedLine struct {
	ID               string      `json:"id"`
	Schema           Schema      `json:"schema"`
	RawCode          string      `json:"codigoCompleto"`
	Code             string      `json:"codigo,omitempty"`
	Date             string      `json:"data,omitempty"`
	InvoiceNumber    string      `json:"numeroNF"`
	Volume           int         `json:"volumes"`
	DestinationCode  string      `json:"codigoDestino"`
	Supplier         string      `json:"fornecedor"`
	FinalDestination string      `json:"destinoFinal"`
	CargoType        string      `json:"tipoCarga"`
	ScannedAt        time.Time   `json:"timestamp"`
	Status           LineStatus  `json:"status"`
	ErrorKind        string      `json:"errorKind,omitempty"`
	ErrorDetail      string      `json:"erro,omitempty"`
	Divergence       *Divergence `json:"divergencia,omitempty"`
}

// EffectiveVolume is the informed volume when a divergence overrides it, else the scanned one
func (l ScannedLine) EffectiveVolume() int {
	if l.Divergence != nil {
		return l.Divergence.InformedVolume
	}
	return l.Volume
}

// Divergent reports whether the line blocks release of its cart
func (l ScannedLine) Divergent() bool {
	return l.Status.Divergent()
}

// withOutcome returns a copy of the line carrying the checker's verdict
func (l ScannedLine) withOutcome(status LineStatus, err KindError) ScannedLine {
	l.Status = status
	if err != nil {
		l.ErrorKind = err.Kind()
		l.ErrorDetail = err.Error()
	}
	return l
}

// LineSet is a read-only view over lines already recorded for a scan target
type LineSet interface {
	Lines() []ScannedLine
	// DestinationBound reports whether valid lines must share one final destination
	DestinationBound() bool
}

// sumVolumes adds the effective volume of counted lines
func sumVolumes(lines []ScannedLine) int {
	total := 0
	for _, l := range lines {
		if l.Status.Counted() {
			total += l.EffectiveVolume()
		}
	}
	return total
}
