package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxCollaborators is the largest team that can share a session
const MaxCollaborators = 3

// Session is one authenticated work period
type Session struct {
	Collaborators []string  `json:"colaboradores"`
	Date          string    `json:"data"`
	Shift         Shift     `json:"turno"`
	Area          Area      `json:"area"`
	Role          Role      `json:"role"`
	LoginAt       time.Time `json:"loginTime"`
}

// keySeparator joins the parts of a session key and is therefore
// forbidden inside collaborator names
const keySeparator = "_"

// Validate checks the session invariants
func (s Session) Validate() error {
	if len(s.Collaborators) == 0 || len(s.Collaborators) > MaxCollaborators {
		return &InvalidSessionError{
			Field:  "colaboradores",
			Reason: fmt.Sprintf("need between 1 and %d collaborators, got %d", MaxCollaborators, len(s.Collaborators)),
		}
	}
	for _, c := range s.Collaborators {
		if err := ValidateCollaborator(c); err != nil {
			return err
		}
	}
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return &InvalidSessionError{Field: "data", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s.Date)}
	}
	if !s.Shift.Valid() {
		return &InvalidSessionError{Field: "turno", Reason: fmt.Sprintf("unknown shift %q", s.Shift)}
	}
	if !s.Area.Valid() {
		return &InvalidSessionError{Field: "area", Reason: fmt.Sprintf("unknown area %q", s.Area)}
	}
	if !s.Role.Valid() {
		return &InvalidSessionError{Field: "role", Reason: fmt.Sprintf("unknown role %q", s.Role)}
	}
	return nil
}

// ValidateCollaborator rejects names that are blank or would collide in a session key
func ValidateCollaborator(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &InvalidSessionError{Field: "colaboradores", Reason: "collaborator name cannot be blank"}
	}
	if strings.Contains(name, keySeparator) {
		return &InvalidSessionError{Field: "colaboradores", Reason: fmt.Sprintf("collaborator name %q cannot contain %q", name, keySeparator)}
	}
	return nil
}

// Key namespaces everything persisted for the session
func (s Session) Key() string {
	names := make([]string, len(s.Collaborators))
	for i, c := range s.Collaborators {
		names[i] = strings.TrimSpace(c)
	}
	return strings.Join([]string{string(s.Area), strings.Join(names, keySeparator), s.Date, string(s.Shift)}, keySeparator)
}

// Notebook is the receiving session's working note list
type Notebook struct {
	SessionKey string        `json:"session_key"`
	Notes      []ScannedLine `json:"notas"`
}

// NewNotebook returns an empty notebook for a session
func NewNotebook(sessionKey string) *Notebook {
	return &Notebook{SessionKey: sessionKey, Notes: []ScannedLine{}}
}

// Lines returns the notes, most recent first
func (n *Notebook) Lines() []ScannedLine {
	return n.Notes
}

// DestinationBound is false: a receiving load mixes client destinations
func (n *Notebook) DestinationBound() bool {
	return false
}

// Add records a note at the head of the list
func (n *Notebook) Add(line ScannedLine) {
	n.Notes = append([]ScannedLine{line}, n.Notes...)
}

// Remove deletes a note by id
func (n *Notebook) Remove(id string) error {
	for i, l := range n.Notes {
		if l.ID == id {
			n.Notes = append(n.Notes[:i:i], n.Notes[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Resource: "note", ID: id}
}

// SetDivergence attaches an operator correction to an accepted note
func (n *Notebook) SetDivergence(id string, d Divergence) error {
	if d.InformedVolume < 0 {
		return &InvalidVolumeError{Value: fmt.Sprint(d.InformedVolume)}
	}
	for i, l := range n.Notes {
		if l.ID != id {
			continue
		}
		if !l.Status.Counted() {
			return &InvalidTransitionError{Action: "annotate a rejected note"}
		}
		div := d
		n.Notes[i].Divergence = &div
		return nil
	}
	return &NotFoundError{Resource: "note", ID: id}
}

// ClearDivergence removes an operator correction
func (n *Notebook) ClearDivergence(id string) error {
	for i, l := range n.Notes {
		if l.ID == id {
			n.Notes[i].Divergence = nil
			return nil
		}
	}
	return &NotFoundError{Resource: "note", ID: id}
}

// Reportable returns the notes that go into a report, oldest first
func (n *Notebook) Reportable() []ScannedLine {
	out := make([]ScannedLine, 0, len(n.Notes))
	for i := len(n.Notes) - 1; i >= 0; i-- {
		if n.Notes[i].Status.Counted() {
			out = append(out, n.Notes[i])
		}
	}
	return out
}

// Volume sums the effective volume of reportable notes
func (n *Notebook) Volume() int {
	return sumVolumes(n.Notes)
}
