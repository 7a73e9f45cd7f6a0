package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTasksOrder(t *testing.T) {
	tasks := AllTasks()
	require.Len(t, tasks, 20)
	assert.Equal(t, RemoveTiles, tasks[0])
	assert.Equal(t, DemoWork, tasks[len(tasks)-1])

	seen := make(map[Task]struct{}, len(tasks))
	for _, task := range tasks {
		_, dup := seen[task]
		assert.False(t, dup, "duplicate task %s", task)
		seen[task] = struct{}{}
	}
}

func TestParseTask(t *testing.T) {
	tests := []struct {
		name    string
		want    Task
		wantErr bool
	}{
		{"remove tiles", RemoveTiles, false},
		{"  Install Vanity ", InstallVanity, false},
		{"waterproofing", Waterproofing, false},
		{"build garage", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTask(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskStringInvalid(t *testing.T) {
	assert.Equal(t, "Task(0)", Task(0).String())
	assert.False(t, Task(99).Valid())
}

func TestQuoteJSONFieldNames(t *testing.T) {
	q := Quote{
		RoomSize:   4,
		TotalPrice: 483,
		Tasks: []TaskLineItem{{
			Task:          RemoveTiles,
			MaterialCost:  100,
			LaborCost:     250,
			EstimatedTime: 5,
			TotalPrice:    483,
			VATRate:       0.2,
			Margin:        0.15,
		}},
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.ElementsMatch(t, []string{"tasks", "room_size", "total_price"}, keys(raw))

	items := raw["tasks"].([]any)
	item := items[0].(map[string]any)
	assert.ElementsMatch(t,
		[]string{"task", "material_cost", "labor_cost", "estimated_time", "total_price", "vat_rate", "margin"},
		keys(item))
	assert.Equal(t, "remove tiles", item["task"])
}

func TestQuoteTaskNames(t *testing.T) {
	q := &Quote{Tasks: []TaskLineItem{{Task: LayTiles}, {Task: Caulking}}}
	assert.Equal(t, []string{"lay tiles", "caulking"}, q.TaskNames())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
