package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"renovation-quoter/catalog"
	"renovation-quoter/models"
)

func TestComposeReferenceScenario(t *testing.T) {
	prices := catalog.New(
		map[models.Task]float64{models.RemoveTiles: 100},
		map[models.Task]float64{models.RemoveTiles: 5},
		nil,
	)

	item := NewComposer(prices).Compose(models.RemoveTiles, 4, 50, 0.15, 0.20)

	assert.Equal(t, models.RemoveTiles, item.Task)
	assert.Equal(t, 100.0, item.MaterialCost)
	assert.Equal(t, 5.0, item.EstimatedTime)
	assert.Equal(t, 250.0, item.LaborCost)
	assert.InDelta(t, 483.0, item.TotalPrice, 1e-9)
	assert.Equal(t, 0.20, item.VATRate)
	assert.Equal(t, 0.15, item.Margin)
}

func TestComposeScalesLaborWithRoomSize(t *testing.T) {
	item := NewComposer(catalog.Default()).Compose(models.RedoPlumbing, 6, 50, 0, 0)

	assert.InDelta(t, 12.0, item.EstimatedTime, 1e-9)
	assert.InDelta(t, 600.0, item.LaborCost, 1e-9)
}

func TestComposeTaskWithoutLaborEntry(t *testing.T) {
	prices := catalog.New(map[models.Task]float64{models.InstallShower: 850}, nil, nil)

	for _, task := range models.AllTasks() {
		item := NewComposer(prices).Compose(task, 7.5, 50, 0.15, 0.2)
		assert.Zero(t, item.LaborCost, task.String())
		assert.Zero(t, item.EstimatedTime, task.String())
	}

	shower := NewComposer(prices).Compose(models.InstallShower, 7.5, 50, 0.15, 0.2)
	assert.InDelta(t, 850*1.15*1.2, shower.TotalPrice, 1e-9)
}

func TestComposeUnknownTaskIsFree(t *testing.T) {
	item := NewComposer(catalog.New(nil, nil, nil)).Compose(models.Ventilation, 4, 50, 0.15, 0.2)

	assert.Zero(t, item.MaterialCost)
	assert.Zero(t, item.TotalPrice)
}

func TestComposeTotalFormula(t *testing.T) {
	composer := NewComposer(catalog.Default())
	for _, task := range models.AllTasks() {
		for _, size := range []float64{1, 4, 5.5, 12} {
			for _, margin := range []float64{0, 0.15, 0.3} {
				for _, vat := range []float64{0, 0.2, 0.25} {
					item := composer.Compose(task, size, 45, margin, vat)
					want := (item.MaterialCost + item.LaborCost) * (1 + margin) * (1 + vat)
					assert.InDelta(t, want, item.TotalPrice, 1e-9)
				}
			}
		}
	}
}

func TestMarginAppliedBeforeVAT(t *testing.T) {
	assert.InDelta(t, 402.5, ApplyMargin(350, 0.15), 1e-9)
	assert.InDelta(t, 483.0, ApplyVAT(ApplyMargin(350, 0.15), 0.2), 1e-9)
	assert.InDelta(t, 120.0, ApplyVAT(100, 0.2), 1e-9)
	assert.Equal(t, 250.0, LaborCost(5, 50))
}

func TestDescribeTasks(t *testing.T) {
	infos := DescribeTasks(catalog.Default())

	assert.Len(t, infos, len(models.AllTasks()))
	assert.Equal(t, TaskInfo{Task: models.RemoveTiles, MaterialCost: 100, BaseLaborHours: 5}, infos[0])
	assert.Equal(t, models.DemoWork, infos[len(infos)-1].Task)
	assert.Zero(t, infos[len(infos)-1].MaterialCost)
}
