package models

// TaskLineItem is the priced breakdown of a single detected task.
// TotalPrice is tax-inclusive: margin is applied to the material+labor
// subtotal first, then VAT on the margined amount.
type TaskLineItem struct {
	Task          Task    `json:"task"`
	MaterialCost  float64 `json:"material_cost"`
	LaborCost     float64 `json:"labor_cost"`
	EstimatedTime float64 `json:"estimated_time"`
	TotalPrice    float64 `json:"total_price"`
	VATRate       float64 `json:"vat_rate"`
	Margin        float64 `json:"margin"`
}

// Quote is the itemized result of one transcript-to-quote run.
type Quote struct {
	Tasks      []TaskLineItem `json:"tasks"`
	RoomSize   float64        `json:"room_size"`
	TotalPrice float64        `json:"total_price"`
}

// TaskNames returns the literal names of the quoted tasks in order.
func (q *Quote) TaskNames() []string {
	names := make([]string, 0, len(q.Tasks))
	for _, item := range q.Tasks {
		names = append(names, item.Task.String())
	}
	return names
}
