package quiz

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Mode selects how answers are given. It is orthogonal to State.
type Mode int

const (
	MultipleChoice Mode = iota
	FillIn
)

func (m Mode) String() string {
	if m == FillIn {
		return "fill-in"
	}
	return "multiple-choice"
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "multiple-choice":
		return MultipleChoice, true
	case "fill-in":
		return FillIn, true
	}
	return MultipleChoice, false
}

// State is the engine's position in a session.
type State int

const (
	Empty State = iota
	AnsweringMultipleChoice
	AnsweringFillIn
	ShowingResult
	Completed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case AnsweringMultipleChoice:
		return "answering-multiple-choice"
	case AnsweringFillIn:
		return "answering-fill-in"
	case ShowingResult:
		return "showing-result"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Answering reports whether the engine is waiting for an answer.
func (s State) Answering() bool {
	return s == AnsweringMultipleChoice || s == AnsweringFillIn
}

var (
	ErrNotAnswering     = errors.New("quiz is not waiting for an answer")
	ErrNoAnswer         = errors.New("no answer given")
	ErrUnknownOption    = errors.New("option is not offered for this question")
	ErrNotShowingResult = errors.New("quiz is not showing a result")
)

// Engine runs one timed quiz session over a fixed card sequence.
// It is safe for concurrent use; the timer goroutine shares its lock.
type Engine struct {
	mu sync.Mutex

	cards    []domain.Flashcard
	mode     Mode
	state    State
	index    int
	options  []string
	selected string
	hasPick  bool
	input    string
	results  []domain.QuizResult
	elapsed  int

	rng        *rand.Rand
	newTicker  NewTickerFunc
	interval   time.Duration
	onComplete func([]domain.QuizResult)

	timerGen  uint64
	stopTimer func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used for option generation.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithTicker injects the ticker factory and tick interval.
func WithTicker(f NewTickerFunc, interval time.Duration) Option {
	return func(e *Engine) {
		e.newTicker = f
		e.interval = interval
	}
}

// WithMode sets the starting answer mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// OnComplete registers the callback invoked with the full result log.
func OnComplete(f func([]domain.QuizResult)) Option {
	return func(e *Engine) { e.onComplete = f }
}

// New starts a session on the first card. An empty card list yields an
// engine in the Empty state with no timer.
func New(cards []domain.Flashcard, opts ...Option) *Engine {
	e := &Engine{
		cards:     slices.Clone(cards),
		newTicker: NewStdTicker,
		interval:  time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cards) == 0 {
		e.state = Empty
		return e
	}
	e.enterQuestionLocked()
	return e
}

func (e *Engine) answeringState() State {
	if e.mode == FillIn {
		return AnsweringFillIn
	}
	return AnsweringMultipleChoice
}

func (e *Engine) resetQuestionLocked() {
	e.selected = ""
	e.hasPick = false
	e.input = ""
	e.options = nil
	if e.mode == MultipleChoice {
		e.options = GenerateOptions(e.cards[e.index].Answer, e.cards, e.rng)
	}
	e.state = e.answeringState()
}

func (e *Engine) enterQuestionLocked() {
	e.resetQuestionLocked()
	e.startTimerLocked()
}

// SetMode switches answer mode. While answering, the current question's input
// is cleared and its options regenerated; the result log is kept.
func (e *Engine) SetMode(m Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == m {
		return
	}
	e.mode = m
	if e.state.Answering() {
		e.resetQuestionLocked()
	}
}

// Select picks a multiple-choice option.
func (e *Engine) Select(option string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != AnsweringMultipleChoice {
		return ErrNotAnswering
	}
	if !slices.Contains(e.options, option) {
		return ErrUnknownOption
	}
	e.selected = option
	e.hasPick = true
	return nil
}

// SetInput records the fill-in answer text.
func (e *Engine) SetInput(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != AnsweringFillIn {
		return ErrNotAnswering
	}
	e.input = text
	return nil
}

// Submit checks the current answer, logs the result and shows it.
func (e *Engine) Submit() (domain.QuizResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	card := domain.Flashcard{}
	if e.state.Answering() {
		card = e.cards[e.index]
	}
	var correct bool
	switch e.state {
	case AnsweringMultipleChoice:
		if !e.hasPick {
			return domain.QuizResult{}, ErrNoAnswer
		}
		correct = e.selected == card.Answer
	case AnsweringFillIn:
		if e.input == "" {
			return domain.QuizResult{}, ErrNoAnswer
		}
		correct = normalizeAnswer(e.input) == normalizeAnswer(card.Answer)
	default:
		return domain.QuizResult{}, ErrNotAnswering
	}

	result := domain.QuizResult{
		CardID:    card.ID,
		Correct:   correct,
		TimeSpent: e.elapsed,
	}
	e.results = append(e.results, result)
	e.elapsed = 0
	e.stopTimerLocked()
	e.state = ShowingResult
	return result, nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Next moves to the following question, or completes the session after the
// last one. The completion callback runs without the engine lock held.
func (e *Engine) Next() error {
	e.mu.Lock()
	if e.state != ShowingResult {
		e.mu.Unlock()
		return ErrNotShowingResult
	}
	if e.index < len(e.cards)-1 {
		e.index++
		e.enterQuestionLocked()
		e.mu.Unlock()
		return nil
	}

	e.state = Completed
	e.stopTimerLocked()
	results := slices.Clone(e.results)
	cb := e.onComplete
	e.mu.Unlock()

	if cb != nil {
		cb(results)
	}
	return nil
}

// Restart clears the result log and timer and returns to the first question
// in the last selected mode.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Empty {
		return
	}
	e.results = nil
	e.elapsed = 0
	e.index = 0
	e.enterQuestionLocked()
}

// Tick advances the question timer by one second while answering with the
// timer running.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Answering() && e.stopTimer != nil {
		e.elapsed++
	}
}

// Pause stops the timer. The question and the seconds counted so far are kept.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
}

// Resume restarts a paused timer. It does nothing unless the engine is
// answering with no timer running.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Answering() && e.stopTimer == nil {
		e.startTimerLocked()
	}
}

// Close stops the timer. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// Results returns a copy of the result log.
func (e *Engine) Results() []domain.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.results)
}

// Snapshot is a consistent read of everything a view needs.
type Snapshot struct {
	State        State
	Mode         Mode
	Index        int
	Total        int
	Card         domain.Flashcard
	Options      []string
	Selected     string
	HasSelection bool
	Input        string
	Elapsed      int
	LastResult   *domain.QuizResult
	IsLast       bool
	Summary      Summary
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		State:        e.state,
		Mode:         e.mode,
		Index:        e.index,
		Total:        len(e.cards),
		Options:      slices.Clone(e.options),
		Selected:     e.selected,
		HasSelection: e.hasPick,
		Input:        e.input,
		Elapsed:      e.elapsed,
		IsLast:       e.index == len(e.cards)-1,
	}
	if len(e.cards) > 0 {
		s.Card = e.cards[e.index]
	}
	if e.state == ShowingResult && len(e.results) > 0 {
		last := e.results[len(e.results)-1]
		s.LastResult = &last
	}
	if e.state == Completed {
		s.Summary = Summarize(e.results)
	}
	return s
}
