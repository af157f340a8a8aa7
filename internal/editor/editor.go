package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// SaveFunc persists an edited card.
type SaveFunc func(ctx context.Context, card domain.Flashcard) error

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"question":   "Question is required",
	"answer":     "Answer is required",
	"difficulty": "Difficulty must be between 1 and 5",
}

// ValidationError carries one message per invalid field. It never leaves the client.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Editor holds an editable copy of one card. Nothing is saved until Submit.
type Editor struct {
	original domain.Flashcard
	draft    domain.Flashcard
	save     SaveFunc
	open     bool
	errs     map[string]string
}

// New opens an editor on a copy of card.
func New(card domain.Flashcard, save SaveFunc) *Editor {
	return &Editor{
		original: card.Clone(),
		draft:    card.Clone(),
		save:     save,
		open:     true,
	}
}

func (e *Editor) IsOpen() bool                   { return e.open }
func (e *Editor) Draft() domain.Flashcard        { return e.draft.Clone() }
func (e *Editor) Tags() []string                 { return slices.Clone(e.draft.Tags) }
func (e *Editor) FieldErrors() map[string]string { return e.errs }

func (e *Editor) SetQuestion(q string) { e.draft.Question = q }
func (e *Editor) SetAnswer(a string)   { e.draft.Answer = a }
func (e *Editor) SetDifficulty(d int)  { e.draft.Difficulty = d }

// SetDifficultyText parses a form value. An unparsable value keeps the current difficulty.
func (e *Editor) SetDifficultyText(s string) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return
	}
	e.draft.Difficulty = d
}

// AddTag appends candidate unless it is empty or already present (exact match).
func (e *Editor) AddTag(candidate string) bool {
	if candidate == "" || slices.Contains(e.draft.Tags, candidate) {
		return false
	}
	e.draft.Tags = append(e.draft.Tags, candidate)
	return true
}

// RemoveTag drops an exact match from the tags.
func (e *Editor) RemoveTag(target string) bool {
	i := slices.Index(e.draft.Tags, target)
	if i < 0 {
		return false
	}
	e.draft.Tags = slices.Delete(e.draft.Tags, i, i+1)
	return true
}

// Validate checks the draft and returns a *ValidationError for bad fields.
func (e *Editor) Validate() error {
	err := validate.Struct(e.draft)
	if err == nil {
		e.errs = nil
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate flashcard %s: %w", e.draft.ID, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		fields[fe.Field()] = msg
	}
	e.errs = fields
	return &ValidationError{Fields: fields}
}

// Submit validates the draft and hands the rebuilt card to the save function.
// The editor closes only once the save succeeds.
func (e *Editor) Submit(ctx context.Context) error {
	if !e.open {
		return errors.New("editor is closed")
	}
	if err := e.Validate(); err != nil {
		return err
	}

	card := e.original.Clone()
	card.Question = e.draft.Question
	card.Answer = e.draft.Answer
	card.Difficulty = e.draft.Difficulty
	card.Tags = slices.Clone(e.draft.Tags)
	if card.Tags == nil {
		card.Tags = []string{}
	}

	if e.save != nil {
		if err := e.save(ctx, card); err != nil {
			return err
		}
	}
	e.open = false
	return nil
}

// Cancel closes the editor and discards the draft.
func (e *Editor) Cancel() {
	e.open = false
	e.draft = e.original.Clone()
}
