package viewer

import (
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// State is the viewer's position in the review flow.
type State int

const (
	Empty State = iota
	Browsing
	Completed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Browsing:
		return "browsing"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Viewer walks a fixed card sequence one card at a time.
type Viewer struct {
	cards         []domain.Flashcard
	index         int
	answerVisible bool
	completed     bool
	onEdit        func(domain.Flashcard)
}

// New creates a viewer over cards. onEdit may be nil.
func New(cards []domain.Flashcard, onEdit func(domain.Flashcard)) *Viewer {
	return &Viewer{
		cards:  append([]domain.Flashcard(nil), cards...),
		onEdit: onEdit,
	}
}

// State reports whether the viewer is empty, browsing, or done.
func (v *Viewer) State() State {
	switch {
	case len(v.cards) == 0:
		return Empty
	case v.completed:
		return Completed
	default:
		return Browsing
	}
}

func (v *Viewer) Index() int          { return v.index }
func (v *Viewer) Len() int            { return len(v.cards) }
func (v *Viewer) AnswerVisible() bool { return v.answerVisible }
func (v *Viewer) IsLast() bool        { return v.index == len(v.cards)-1 }

// Current returns the card under the cursor.
func (v *Viewer) Current() (domain.Flashcard, bool) {
	if len(v.cards) == 0 {
		return domain.Flashcard{}, false
	}
	return v.cards[v.index], true
}

// Progress renders the "Card N of M" label.
func (v *Viewer) Progress() string {
	if len(v.cards) == 0 {
		return ""
	}
	return fmt.Sprintf("Card %d of %d", v.index+1, len(v.cards))
}

// Advance moves to the next card, or marks the review completed at the last one.
func (v *Viewer) Advance() {
	if len(v.cards) == 0 || v.completed {
		return
	}
	if v.index < len(v.cards)-1 {
		v.index++
		v.answerVisible = false
		return
	}
	v.completed = true
}

// Retreat moves to the previous card. It never goes below the first card.
func (v *Viewer) Retreat() {
	if v.index > 0 {
		v.index--
	}
	v.answerVisible = false
}

func (v *Viewer) ToggleAnswer() {
	if len(v.cards) == 0 {
		return
	}
	v.answerVisible = !v.answerVisible
}

// Restart returns to the first card with the answer hidden.
func (v *Viewer) Restart() {
	v.index = 0
	v.answerVisible = false
	v.completed = false
}

// Edit hands the current card to the edit callback.
func (v *Viewer) Edit() bool {
	card, ok := v.Current()
	if !ok || v.onEdit == nil {
		return false
	}
	v.onEdit(card)
	return true
}

// UpdateCard replaces the card with the same id, keeping the cursor where it is.
func (v *Viewer) UpdateCard(card domain.Flashcard) bool {
	for i := range v.cards {
		if v.cards[i].ID == card.ID {
			v.cards[i] = card
			return true
		}
	}
	return false
}
