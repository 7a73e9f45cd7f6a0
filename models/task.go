package models

import (
	"fmt"
	"strings"
)

// Task is one renovation task from the fixed vocabulary the system can
// recognise and price. The zero value is not a valid task.
type Task int

const (
	RemoveTiles Task = iota + 1
	RedoPlumbing
	ReplaceToilet
	InstallToilet
	InstallVanity
	InstallSink
	RepaintWalls
	LayTiles
	InstallShower
	ReplaceBathtub
	InstallBathtub
	Waterproofing
	ElectricalWork
	Ventilation
	InstallLighting
	GroutWork
	Caulking
	InstallMirror
	InstallCabinets
	DemoWork
)

var taskNames = [...]string{
	RemoveTiles:     "remove tiles",
	RedoPlumbing:    "redo plumbing",
	ReplaceToilet:   "replace toilet",
	InstallToilet:   "install toilet",
	InstallVanity:   "install vanity",
	InstallSink:     "install sink",
	RepaintWalls:    "repaint walls",
	LayTiles:        "lay tiles",
	InstallShower:   "install shower",
	ReplaceBathtub:  "replace bathtub",
	InstallBathtub:  "install bathtub",
	Waterproofing:   "waterproofing",
	ElectricalWork:  "electrical work",
	Ventilation:     "ventilation",
	InstallLighting: "install lighting",
	GroutWork:       "grout work",
	Caulking:        "caulking",
	InstallMirror:   "install mirror",
	InstallCabinets: "install cabinets",
	DemoWork:        "demo work",
}

// AllTasks returns the vocabulary in its canonical iteration order.
// Detection results always follow this order.
func AllTasks() []Task {
	tasks := make([]Task, 0, len(taskNames)-1)
	for t := RemoveTiles; t <= DemoWork; t++ {
		tasks = append(tasks, t)
	}
	return tasks
}

// Valid reports whether t is a member of the vocabulary.
func (t Task) Valid() bool {
	return t >= RemoveTiles && t <= DemoWork
}

func (t Task) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Task(%d)", int(t))
	}
	return taskNames[t]
}

// ParseTask maps a literal task name back to its Task. Matching ignores
// case and surrounding whitespace.
func ParseTask(name string) (Task, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range AllTasks() {
		if taskNames[t] == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown task %q", name)
}

// MarshalText encodes the task as its literal name.
func (t Task) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid task %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a literal task name.
func (t *Task) UnmarshalText(text []byte) error {
	parsed, err := ParseTask(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
