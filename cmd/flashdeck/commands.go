package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/library"
	"github.com/conorfennell/flashdeck/internal/quiz"
)

func listSets(ctx context.Context, cfg *config.Config) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	catalog := library.NewCatalog(client, nil)
	if err := catalog.Load(ctx); err != nil {
		return err
	}

	sets := catalog.View().Sets
	if len(sets) == 0 {
		pterm.Warning.Println("No flashcard sets found.")
		return nil
	}
	tableData := pterm.TableData{{"ID", "Title", "Cards"}}
	for _, s := range sets {
		tableData = append(tableData, []string{s.ID, s.Title, strconv.Itoa(s.Count)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func exportSet(ctx context.Context, cfg *config.Config, id, output string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	db, c, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	study := library.NewStudy(id, client, library.WithCache(c))
	if err := study.Load(ctx); err != nil {
		return err
	}
	if v := study.Snapshot(); v.Stale {
		pterm.Warning.Println(v.Error)
	}
	filename, data, err := study.Export()
	if err != nil {
		return err
	}
	if output != "" {
		filename = output
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	pterm.Success.Printf("Exported set %s to '%s'.\n", id, filename)
	return nil
}

func deleteSet(ctx context.Context, cfg *config.Config, id string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	db, c, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if err := library.NewCatalog(client, c).Delete(ctx, id); err != nil {
		return err
	}
	pterm.Success.Printf("Deleted set %s.\n", id)
	return nil
}

func showHistory(cfg *config.Config, setID string) error {
	db, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("quiz history needs a database; set --db")
	}
	defer db.Close()

	sessions, err := db.GetQuizSessions(setID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		pterm.Info.Println("No quizzes recorded yet.")
		return nil
	}

	tableData := pterm.TableData{{"Finished", "Set", "Mode", "Score", "Accuracy", "Time"}}
	for _, s := range sessions {
		sum := quiz.Summary{Correct: s.Correct, Total: s.Total, TotalSeconds: s.TotalSeconds}
		tableData = append(tableData, []string{
			s.FinishedAt.Local().Format("2006-01-02 15:04"),
			s.SetID,
			s.Mode,
			fmt.Sprintf("%d/%d", s.Correct, s.Total),
			sum.AccuracyString(),
			sum.TotalTime(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}
