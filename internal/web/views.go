package web

import (
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/editor"
	"github.com/conorfennell/flashdeck/internal/library"
	"github.com/conorfennell/flashdeck/internal/quiz"
	"github.com/conorfennell/flashdeck/internal/viewer"
)

type libraryData struct {
	View library.CatalogView
}

type notFoundData struct {
	View library.StudyView
}

// RedirectSeconds is the meta refresh delay for the not-found page.
func (d notFoundData) RedirectSeconds() int {
	return int(d.View.RedirectAfter / time.Second)
}

type studyData struct {
	Study  library.StudyView
	Notice string
	Review *reviewData
	Quiz   *quiz.Snapshot
}

func (d studyData) IsQuiz() bool { return d.Study.View == library.QuizView }

type reviewData struct {
	Empty         bool
	Completed     bool
	Card          domain.Flashcard
	Progress      string
	AnswerVisible bool
	IsFirst       bool
	IsLast        bool
	Total         int
}

func newReviewData(v *viewer.Viewer) *reviewData {
	card, _ := v.Current()
	return &reviewData{
		Empty:         v.State() == viewer.Empty,
		Completed:     v.State() == viewer.Completed,
		Card:          card,
		Progress:      v.Progress(),
		AnswerVisible: v.AnswerVisible(),
		IsFirst:       v.Index() == 0,
		IsLast:        v.IsLast(),
		Total:         v.Len(),
	}
}

type editData struct {
	SetID        string
	SetTitle     string
	Draft        domain.Flashcard
	Tags         []string
	Errors       map[string]string
	Message      string
	Saving       bool
	Difficulties []int
}

func newEditData(v library.StudyView, ed *editor.Editor, msg string) editData {
	d := editData{
		SetID:    v.Set.ID,
		SetTitle: v.Set.Title,
		Draft:    ed.Draft(),
		Tags:     ed.Tags(),
		Errors:   ed.FieldErrors(),
		Message:  msg,
		Saving:   v.Saving,
	}
	for i := domain.MinDifficulty; i <= domain.MaxDifficulty; i++ {
		d.Difficulties = append(d.Difficulties, i)
	}
	return d
}

type timerData struct {
	Active  bool
	Elapsed int
}
