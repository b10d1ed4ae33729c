package handlers

import (
	"time"

	"example.com/backstage/services/bipagem/domain"
)

// LineView is a recorded line with its display indicator
type LineView struct {
	domain.ScannedLine
	Severity string `json:"severidade"`
}

// CartView is the client representation of a cart
type CartView struct {
	ID               string            `json:"id"`
	Name             string            `json:"nome"`
	SessionKey       string            `json:"sessionKey"`
	Status           domain.CartStatus `json:"status"`
	StatusLabel      string            `json:"statusLabel"`
	Active           bool              `json:"ativo"`
	FinalDestination string            `json:"destinoFinal"`
	Volume           int               `json:"volumeTotal"`
	ValidCount       int               `json:"validas"`
	DivergentCount   int               `json:"divergentes"`
	Editable         bool              `json:"podeEditar"`
	Version          int               `json:"version"`
	Lines            []LineView        `json:"nfs"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewCartView builds the view of a cart
func NewCartView(cart *domain.CartAggregate) CartView {
	return CartView{
		ID:               cart.GetID(),
		Name:             cart.State.Name,
		SessionKey:       cart.State.SessionKey,
		Status:           cart.State.Status,
		StatusLabel:      cart.State.Status.Label(),
		Active:           cart.State.Active,
		FinalDestination: cart.FinalDestination(),
		Volume:           cart.AggregateVolume(),
		ValidCount:       cart.ValidCount(),
		DivergentCount:   cart.DivergentCount(),
		Editable:         cart.State.Status.Editable(),
		Version:          cart.GetVersion(),
		Lines:            lineViews(cart.Lines()),
		CreatedAt:        cart.State.CreatedAt,
		UpdatedAt:        cart.State.UpdatedAt,
	}
}

// NotebookView is the client representation of a receiving notebook
type NotebookView struct {
	SessionKey string     `json:"sessionKey"`
	Notes      []LineView `json:"notas"`
	NoteCount  int        `json:"quantidadeNotas"`
	Volume     int        `json:"somaVolumes"`
}

// NewNotebookView builds the view of a notebook
func NewNotebookView(notebook *domain.Notebook) NotebookView {
	return NotebookView{
		SessionKey: notebook.SessionKey,
		Notes:      lineViews(notebook.Lines()),
		NoteCount:  len(notebook.Reportable()),
		Volume:     notebook.Volume(),
	}
}

// ScanResult is the verdict of one scan and the target it was recorded in
type ScanResult struct {
	Outcome  domain.OutcomeKind `json:"outcome"`
	Line     LineView           `json:"line"`
	Error    string             `json:"error,omitempty"`
	Kind     string             `json:"kind,omitempty"`
	Cart     *CartView          `json:"cart,omitempty"`
	Notebook *NotebookView      `json:"notebook,omitempty"`
}

func newScanResult(outcome domain.Outcome) *ScanResult {
	result := &ScanResult{
		Outcome: outcome.Kind,
		Line:    newLineView(outcome.Line),
	}
	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
		result.Kind = outcome.Err.Kind()
	}
	return result
}

func newLineView(line domain.ScannedLine) LineView {
	return LineView{ScannedLine: line, Severity: line.Status.Severity()}
}

func lineViews(lines []domain.ScannedLine) []LineView {
	views := make([]LineView, len(lines))
	for i, l := range lines {
		views[i] = newLineView(l)
	}
	return views
}
