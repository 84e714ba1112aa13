package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"scriptunit/internal/domain"
	"scriptunit/internal/storage"
)

// maxTraceLines limits the stack trace shown in the details pane
const maxTraceLines = 15

// FailureViewer browses the failures of the last run in a TUI. Failures can
// be marked resolved; marks are saved back to storage.
type FailureViewer struct {
	storage storage.Storage
}

// NewFailureViewer creates a new FailureViewer
func NewFailureViewer(st storage.Storage) *FailureViewer {
	return &FailureViewer{storage: st}
}

// View displays the failures of results until the user quits
func (fv *FailureViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	state := &failureState{results: results, storage: fv.storage}
	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for i := range results.Details {
		list.AddItem(state.itemText(i), "", 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	statusView := tview.NewTextView().
		SetDynamicColors(true)

	refresh := func() {
		headerView.SetText(state.header())
		index := list.GetCurrentItem()
		if index >= 0 && index < len(results.Details) {
			statsView.SetText(failureStats(results.Details[index]))
			detailsView.SetText(failureDetails(results.Details[index]))
			detailsView.ScrollToBeginning()
		}
	}

	list.SetChangedFunc(func(int, string, string, rune) { refresh() })
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'r', 'R':
				index := list.GetCurrentItem()
				if err := state.toggle(index); err != nil {
					statusView.SetText("[red]" + tview.Escape(err.Error()))
				} else {
					statusView.SetText("")
				}
				list.SetItemText(index, state.itemText(index), "")
				refresh()
				return nil
			case 'q':
				app.Stop()
				return nil
			}
		}
		return event
	})
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsView, 0, 1, false)
	body := tview.NewFlex().
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(statusView, 1, 0, false)

	refresh()
	if err := app.SetRoot(layout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// failureState holds the failures shown by the viewer
type failureState struct {
	results *domain.TestResultsOutput
	storage storage.Storage
}

// toggle flips the resolved mark of a failure and persists all marks
func (s *failureState) toggle(index int) error {
	if index < 0 || index >= len(s.results.Details) {
		return nil
	}
	s.results.Details[index].Resolved = !s.results.Details[index].Resolved
	if s.storage == nil {
		return nil
	}
	if err := s.storage.SaveOutput(s.results); err != nil {
		return fmt.Errorf("save resolved marks: %w", err)
	}
	return nil
}

func (s *failureState) unresolved() int {
	count := 0
	for _, failure := range s.results.Details {
		if !failure.Resolved {
			count++
		}
	}
	return count
}

func (s *failureState) header() string {
	return fmt.Sprintf(" Test Failures (%d total, %d unresolved) | ↑↓ navigate, [yellow]R[white] mark resolved, → details, ← back, q quit ",
		len(s.results.Details), s.unresolved())
}

func (s *failureState) itemText(index int) string {
	failure := s.results.Details[index]
	name := tview.Escape(failureName(failure, index+1))

	marker := "[red]✗"
	if failure.Status == domain.StatusError {
		marker = "[red]‼"
	}
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ %d. %s[white]", index+1, name)
	}
	return fmt.Sprintf("%s [yellow]%d.[white] %s", marker, index+1, name)
}

func failureName(failure domain.TestFailure, number int) string {
	switch {
	case failure.TestName == "":
		return fmt.Sprintf("Test %d", number)
	case failure.SuiteName != "":
		return failure.SuiteName + "." + failure.TestName
	default:
		return failure.TestName
	}
}

// failureStats formats the header line of the details pane
func failureStats(failure domain.TestFailure) string {
	path := failure.FilePath
	if path == "" {
		path = "Unknown path"
	}
	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white]::[yellow]%s[white]  [cyan]status:[white] %s\n",
		tview.Escape(path), tview.Escape(failureName(failure, 0)), failure.Status)
}

// failureDetails formats a failure using tview color tags
func failureDetails(failure domain.TestFailure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.TestName))
	if failure.SuiteName != "" {
		fmt.Fprintf(&b, "[cyan]Suite: %s[white]\n", tview.Escape(failure.SuiteName))
	}
	fmt.Fprintf(&b, "[cyan]File: %s[white]\n", tview.Escape(failure.FilePath))
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&b, "[yellow]Location: %s:%d[white]\n", tview.Escape(failure.File), failure.Line)
	}
	b.WriteString("\n")

	if failure.Message != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if len(failure.StackTrace) > 0 {
		b.WriteString("[yellow]Stack Trace:[white]\n")
		for i, line := range failure.StackTrace {
			if i == maxTraceLines {
				fmt.Fprintf(&b, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&b, "  %s\n", tview.Escape(line))
		}
	}

	return b.String()
}
