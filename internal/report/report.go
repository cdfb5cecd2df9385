// Package report exports learning progress as an XLSX workbook and a
// curriculum as a PDF outline.
package report

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
)

// ThreadProgress is one thread's learning state.
type ThreadProgress struct {
	Thread     chat.Thread
	Curriculum *curriculum.Curriculum
	Taken      assessment.TakenLog
}

// Collect gathers the progress of every thread in chats, newest first.
func Collect(ctx context.Context, chats *chat.Store) ([]ThreadProgress, error) {
	var out []ThreadProgress
	for _, th := range chats.Threads() {
		c, err := chats.Curriculum(ctx, th.ID)
		if err != nil {
			return nil, fmt.Errorf("curriculum for %s: %w", th.ID, err)
		}
		taken, err := chats.Taken(ctx, th.ID)
		if err != nil {
			return nil, fmt.Errorf("taken log for %s: %w", th.ID, err)
		}
		out = append(out, ThreadProgress{Thread: th, Curriculum: c, Taken: taken})
	}
	return out, nil
}

const summarySheet = "Summary"

// WriteProgressXLSX writes a workbook with a summary sheet and one sheet
// per thread that has a curriculum.
func WriteProgressXLSX(w io.Writer, threads []ThreadProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := []any{"Chat", "Subject", "State", "Completed", "Total", "Progress %", "Assessments taken"}
	if err := writeRow(f, summarySheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "G1", bold); err != nil {
		return err
	}

	used := map[string]bool{summarySheet: true}
	row := 2
	for _, tp := range threads {
		values := []any{tp.Thread.Title, "", "no curriculum", 0, 0, 0.0, strings.Join(takenKeys(tp.Taken), ", ")}
		if c := tp.Curriculum; c != nil {
			values[1] = c.Subject
			values[2] = c.State().String()
			values[3] = c.Count()
			values[4] = c.TotalSubtopics()
			values[5] = float64(int(c.Progress()*1000)) / 10
		}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++

		if tp.Curriculum == nil {
			continue
		}
		name := sheetName(tp.Thread.Title, used)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeCurriculumSheet(f, name, tp.Curriculum, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 32); err != nil {
		return err
	}
	return f.Write(w)
}

func writeCurriculumSheet(f *excelize.File, sheet string, c *curriculum.Curriculum, bold int) error {
	if err := writeRow(f, sheet, 1, []any{"#", "Topic", "Subtopic", "Status"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
		return err
	}
	row := 2
	for ti, topic := range c.Topics {
		for si, sub := range c.Subtopics[topic] {
			pos := fmt.Sprintf("%d.%d", ti+1, si+1)
			if err := writeRow(f, sheet, row, []any{pos, topic, sub, status(c, ti, si)}); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(sheet, "B", "C", 40)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// status is "current", "done" or "" for position (t, s).
func status(c *curriculum.Curriculum, t, s int) string {
	switch {
	case c.State() == curriculum.InProgress && c.TopicIndex == t && c.SubtopicIndex == s:
		return "current"
	case c.IsCompleted(t, s):
		return "done"
	}
	return ""
}

// takenKeys lists the taken triggers ordered by type, then count.
func takenKeys(taken assessment.TakenLog) []string {
	var keys []string
	for _, typ := range assessment.Types {
		var ns []int
		for k, ok := range taken {
			rest, found := strings.CutPrefix(k, string(typ)+"-")
			if n, err := strconv.Atoi(rest); ok && found && err == nil {
				ns = append(ns, n)
			}
		}
		slices.Sort(ns)
		for _, n := range ns {
			keys = append(keys, assessment.Trigger{Type: typ, N: n}.Key())
		}
	}
	return keys
}

// sheetName makes a unique, valid worksheet name from title.
func sheetName(title string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(title))
	if clean == "" {
		clean = "Chat"
	}
	base := []rune(clean)
	if len(base) > 25 {
		base = base[:25]
	}
	name := string(base)
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s (%d)", string(base), i)
	}
	used[name] = true
	return name
}

// WriteCurriculumPDF renders c as a numbered outline with completion
// markers: [x] done, [>] current, [ ] ahead.
func WriteCurriculumPDF(w io.Writer, c *curriculum.Curriculum) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(c.Subject, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, tr(c.Subject), "", "L", false)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s - %d of %d subtopics", c.State(), c.Count(), c.TotalSubtopics()))
	pdf.Ln(12)

	for ti, topic := range c.Topics {
		pdf.SetFont("Arial", "B", 13)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf("%d. %s", ti+1, topic)), "", "L", false)
		pdf.SetFont("Arial", "", 11)
		for si, sub := range c.Subtopics[topic] {
			marker := "[ ]"
			switch status(c, ti, si) {
			case "current":
				marker = "[>]"
			case "done":
				marker = "[x]"
			}
			pdf.SetX(18)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s %s", marker, sub)), "", "L", false)
		}
		pdf.Ln(3)
	}
	return pdf.Output(w)
}
