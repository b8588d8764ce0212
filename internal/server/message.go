package server

// Supported draw operations
const (
	OpNext  = "next"
	OpRange = "range"
	OpIndex = "index"
	OpBool  = "bool"
	OpFloat = "float"
	OpKey   = "key"
)

// DrawRequest asks the authority for draws from one stream. Counter seeks the
// stream before drawing, so a peer can ask for any point in its history.
type DrawRequest struct {
	ID      string   `json:"id,omitempty"`
	Domain  string   `json:"domain"`
	Context []uint64 `json:"context,omitempty"`
	Op      string   `json:"op"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Count   int      `json:"count,omitempty"`
	Counter uint64   `json:"counter,omitempty"`
}

// DrawResponse carries the draws for a request. Counter is the stream
// position after the last draw.
type DrawResponse struct {
	ID      string    `json:"id,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	Counter uint64    `json:"counter"`
	Values  []uint64  `json:"values,omitempty"`
	Ints    []int     `json:"ints,omitempty"`
	Floats  []float64 `json:"floats,omitempty"`
	Bools   []bool    `json:"bools,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// HealthResponse is served on /health
type HealthResponse struct {
	Status      string `json:"status"`
	Session     string `json:"session"`
	Connections int    `json:"connections"`
	Draws       uint64 `json:"draws"`
}
