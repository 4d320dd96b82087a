package forecast

// Components breaks a forecast down into the sum of its parts. Trend includes the intercept.
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
	Event       []float64 `json:"event"`
}

func newComponents(n int) Components {
	return Components{
		Trend:       make([]float64, n),
		Seasonality: make([]float64, n),
		Event:       make([]float64, n),
	}
}
