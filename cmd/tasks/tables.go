package tasks

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
)

// parseTable turns a pasted table into a task collection. Both
// tab-separated rows and markdown pipe tables are recognized; the first
// non-empty row names the columns.
func parseTable(r io.Reader) ([]checklist.Task, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header []string
	var tasks []checklist.Task
	now := time.Now().UTC()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isMarkdownSeparator(line) {
			continue
		}

		cells := splitRow(line)
		if header == nil {
			header = cells
			continue
		}

		task, err := rowToTask(header, cells, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(tasks)+2, err)
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("input contains no table")
	}

	return tasks, nil
}

// splitRow splits one table row into cells. Markdown rows are delimited
// by pipes, everything else by tabs.
func splitRow(line string) []string {
	var raw []string
	if strings.HasPrefix(line, "|") {
		raw = strings.Split(strings.Trim(line, "|"), "|")
	} else {
		raw = strings.Split(line, "\t")
	}
	cells := make([]string, len(raw))
	for i, cell := range raw {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

// isMarkdownSeparator reports whether line is a markdown header rule
// such as "|---|:---:|".
func isMarkdownSeparator(line string) bool {
	if !strings.HasPrefix(line, "|") {
		return false
	}
	trimmed := strings.Trim(line, "|")
	if trimmed == "" {
		return false
	}
	for _, cell := range strings.Split(trimmed, "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" || strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

func rowToTask(header, cells []string, now time.Time) (checklist.Task, error) {
	task := checklist.Task{
		ID:                uuid.NewString(),
		Status:            checklist.StatusTodo,
		CreatedAt:         now,
		UpdatedAt:         now,
		AdditionalColumns: map[string]string{},
	}

	for i, cell := range cells {
		if i >= len(header) {
			break
		}
		switch strings.ToLower(header[i]) {
		case "name", "task":
			task.Name = cell
		case "status":
			status := checklist.Status(strings.ToLower(cell))
			if cell != "" && !status.Valid() {
				return checklist.Task{}, fmt.Errorf("unknown status %q", cell)
			}
			if cell != "" {
				task.Status = status
			}
		case "notes":
			task.Notes = cell
		default:
			if cell != "" {
				task.AdditionalColumns[header[i]] = cell
			}
		}
	}

	if task.Name == "" {
		return checklist.Task{}, fmt.Errorf("missing task name")
	}
	return task, nil
}
