package metrics

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// HorizonMargin records the closest approach in units of the horizon
// radius: 1 means the orbit touched r = 2M.
type HorizonMargin struct {
	name    string
	horizon float64
	index   int
	closest float64
}

func NewHorizonMargin(horizon float64, radiusIndex int) *HorizonMargin {
	return &HorizonMargin{
		name:    "horizon_margin",
		horizon: horizon,
		index:   radiusIndex,
		closest: math.Inf(1),
	}
}

func (h *HorizonMargin) Name() string {
	return h.name
}

func (h *HorizonMargin) Observe(x dynamo.State, t float64) {
	if h.index >= len(x) {
		return
	}
	h.closest = math.Min(h.closest, x[h.index])
}

func (h *HorizonMargin) Value() float64 {
	if math.IsInf(h.closest, 1) || h.horizon <= 0 {
		return 0
	}
	return h.closest / h.horizon
}

func (h *HorizonMargin) Reset() {
	h.closest = math.Inf(1)
}
