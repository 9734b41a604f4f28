package tasks

import (
	"strings"
	"testing"

	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
)

func TestParseTableTSV(t *testing.T) {
	input := "Name\tStatus\tNotes\tPriority\n" +
		"write report\tin-progress\tdraft first\thigh\n" +
		"review queue\t\t\t\n"

	tasks, err := parseTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseTable failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	first := tasks[0]
	if first.Name != "write report" || first.Status != checklist.StatusInProgress ||
		first.Notes != "draft first" || first.AdditionalColumns["Priority"] != "high" {
		t.Errorf("First row parsed wrong: %+v", first)
	}
	if first.ID == "" || first.ID == tasks[1].ID {
		t.Errorf("Expected unique non-empty ids, got %q and %q", first.ID, tasks[1].ID)
	}

	second := tasks[1]
	if second.Status != checklist.StatusTodo {
		t.Errorf("Expected empty status to default to todo, got %q", second.Status)
	}
	if len(second.AdditionalColumns) != 0 {
		t.Errorf("Expected empty cells to be skipped, got %v", second.AdditionalColumns)
	}
}

func TestParseTableMarkdown(t *testing.T) {
	input := `
| Task | Status | Owner |
|------|:------:|-------|
| ship release | done | jo |
| plan sprint | todo | sam |
`

	tasks, err := parseTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseTable failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Name != "ship release" || tasks[0].Status != checklist.StatusDone {
		t.Errorf("First row parsed wrong: %+v", tasks[0])
	}
	if tasks[1].AdditionalColumns["Owner"] != "sam" {
		t.Errorf("Expected extra column kept, got %v", tasks[1].AdditionalColumns)
	}

	for _, task := range tasks {
		if err := checklist.ValidateTask(task); err != nil {
			t.Errorf("Parsed task does not validate: %v", err)
		}
	}
}

func TestParseTableRejectsBadRows(t *testing.T) {
	if _, err := parseTable(strings.NewReader("Name\tStatus\n\tdone\n")); err == nil {
		t.Errorf("Expected error for a row without a name")
	}
	if _, err := parseTable(strings.NewReader("Name\tStatus\nwork\tmaybe-later\n")); err == nil {
		t.Errorf("Expected error for an unknown status")
	}
	if _, err := parseTable(strings.NewReader("\n\n")); err == nil {
		t.Errorf("Expected error for empty input")
	}
}
