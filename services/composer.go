package services

import "renovation-quoter/models"

// ReferenceRoomSize is the room size, in m², the base labor hours are quoted for.
const ReferenceRoomSize = 4.0

// PriceTable supplies per-task material costs and base labor hours.
type PriceTable interface {
	MaterialCost(task models.Task) float64
	BaseLaborHours(task models.Task) float64
}

// Composer prices a single task.
type Composer struct {
	prices PriceTable
}

// NewComposer creates a Composer over the given price table.
func NewComposer(prices PriceTable) *Composer {
	return &Composer{prices: prices}
}

// Compose prices task for a room of roomSize m². Margin is applied to the
// material+labor subtotal and VAT to the margined amount, in that order.
func (c *Composer) Compose(task models.Task, roomSize, hourlyRate, margin, vatRate float64) models.TaskLineItem {
	material := c.prices.MaterialCost(task)
	hours := EstimateLaborHours(c.prices.BaseLaborHours(task), roomSize)
	labor := LaborCost(hours, hourlyRate)

	subtotal := material + labor
	withMargin := ApplyMargin(subtotal, margin)

	return models.TaskLineItem{
		Task:          task,
		MaterialCost:  material,
		LaborCost:     labor,
		EstimatedTime: hours,
		TotalPrice:    ApplyVAT(withMargin, vatRate),
		VATRate:       vatRate,
		Margin:        margin,
	}
}

// EstimateLaborHours scales base hours linearly from the reference room.
func EstimateLaborHours(baseHours, roomSize float64) float64 {
	return baseHours * (roomSize / ReferenceRoomSize)
}

// LaborCost is hours at hourlyRate.
func LaborCost(hours, hourlyRate float64) float64 {
	return hours * hourlyRate
}

// ApplyMargin marks price up by the margin fraction.
func ApplyMargin(price, margin float64) float64 {
	return price * (1 + margin)
}

// ApplyVAT adds tax at vatRate to price.
func ApplyVAT(price, vatRate float64) float64 {
	return price * (1 + vatRate)
}

// TaskInfo describes one vocabulary task with its catalog prices.
type TaskInfo struct {
	Task           models.Task `json:"task"`
	MaterialCost   float64     `json:"material_cost"`
	BaseLaborHours float64     `json:"base_labor_hours"`
}

// DescribeTasks lists the whole vocabulary, in order, priced from prices.
func DescribeTasks(prices PriceTable) []TaskInfo {
	tasks := models.AllTasks()
	out := make([]TaskInfo, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskInfo{
			Task:           t,
			MaterialCost:   prices.MaterialCost(t),
			BaseLaborHours: prices.BaseLaborHours(t),
		})
	}
	return out
}
