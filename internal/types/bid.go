package types

// NoWinner is the distinguished "no bidder currently holds this subtask"
// value (spec.md §3: winner ∈ {NONE} ∪ bidder_names).
const NoWinner = ""

// Bid is the per-(request, subtask) consensus state an agent tracks. The
// "own_bid" field is the agent's own valuation; "winning_bid"/"winner"/
// "t_img" are the current consensus winner's fields, which may be the
// agent's own if it currently holds the subtask. Grounded on the teacher's
// Bid/ScoredBid pair (optimizer.go), generalized from a one-shot contract
// bid into the mutable per-subtask consensus record spec.md §3 requires.
type Bid struct {
	RequestID       string  `json:"request_id"`
	SubtaskIndex    int     `json:"subtask_index"`
	MainMeasurement string  `json:"main_measurement"`
	Dependencies    []int   `json:"dependencies"`     // copy of dependency_matrix row for this subtask
	TimeConstraints []float64 `json:"time_constraints"` // copy of time_dependency_matrix row

	Bidder     string  `json:"bidder"`
	OwnBid     float64 `json:"own_bid"`
	WinningBid float64 `json:"winning_bid"`
	Winner     string  `json:"winner"`
	TImg       float64 `json:"t_img"`
	TUpdate    float64 `json:"t_update"`

	TViolation      float64 `json:"t_violation"`
	DtViolationMax  float64 `json:"dt_violation_max"`

	BidSoloRemaining int  `json:"bid_solo_remaining"`
	BidAnyRemaining  int  `json:"bid_any_remaining"`
	Performed        bool `json:"performed"`
}

// NRequired returns the number of dependencies this subtask requires
// (count(dependencies > 0)).
func (b Bid) NRequired() int {
	n := 0
	for _, d := range b.Dependencies {
		if d > 0 {
			n++
		}
	}
	return n
}

// IsOptimistic reports whether the subtask has any positive dependency
// (spec.md §3 derived field).
func (b Bid) IsOptimistic() bool {
	return b.NRequired() > 0
}

// Reset clears winner-related state. After Reset, Winner == NoWinner,
// WinningBid == 0, and TImg < 0 (spec.md §8 invariant).
func (b Bid) Reset() Bid {
	b.Winner = NoWinner
	b.WinningBid = 0
	b.TImg = -1
	b.TViolation = -1
	return b
}

// ResetAndDecrement clears winner-related state and, for optimistic bids
// decrements BidSoloRemaining if it is still positive, otherwise
// BidAnyRemaining if that is still positive.
func (b Bid) ResetAndDecrement() Bid {
	b = b.Reset()
	if b.IsOptimistic() {
		if b.BidSoloRemaining > 0 {
			b.BidSoloRemaining--
		} else if b.BidAnyRemaining > 0 {
			b.BidAnyRemaining--
		}
	}
	return b
}

// Broadcast is the outcome of applying the bid-update rule to an incoming
// peer bid (spec.md §4.6.1).
type Broadcast int

const (
	BroadcastNone Broadcast = iota
	BroadcastSelf           // rebroadcast my own (unchanged or newly-won) bid
	BroadcastOther          // rebroadcast the peer's bid that displaced me
)

// tieBreak resolves a winning_bid tie by bidder name, lexicographically.
// Returns true if candidate should be preferred over incumbent.
func tieBreak(candidate, incumbent string) bool {
	return candidate < incumbent
}

// Update applies the per-(request,subtask) bid-update rule of spec.md
// §4.6.1: if other's winning bid is strictly greater, or equal with a
// favorable tie-break, adopt other's winner/winning_bid/t_img. t_update is
// always advanced to t. The adopting side's own_bid is never changed
// (spec.md §8 invariant).
func (b Bid) Update(other Bid, t float64) (updated Bid, broadcast Broadcast, changed bool) {
	before := b
	wasWinner := b.Winner == b.Bidder && b.Bidder != NoWinner

	adopt := other.WinningBid > b.WinningBid ||
		(other.WinningBid == b.WinningBid && other.Winner != NoWinner &&
			(b.Winner == NoWinner || tieBreak(other.Winner, b.Winner)))

	if adopt {
		b.Winner = other.Winner
		b.WinningBid = other.WinningBid
		b.TImg = other.TImg
	}
	b.TUpdate = t

	switch {
	case wasWinner && adopt && other.Winner != b.Bidder:
		broadcast = BroadcastOther
	case b.Winner == b.Bidder && b.Bidder != NoWinner:
		broadcast = BroadcastSelf
	default:
		broadcast = BroadcastNone
	}

	changed = before.Winner != b.Winner || before.WinningBid != b.WinningBid ||
		before.TImg != b.TImg || before.TUpdate != b.TUpdate

	return b, broadcast, changed
}

// SetBid records this agent's own valuation of the subtask and, if it
// exceeds the current winning bid (or equals it while the subtask has no
// winner), claims the subtask for this agent.
func (b Bid) SetBid(ownBid float64, tImg, t float64) Bid {
	b.OwnBid = ownBid
	if ownBid > b.WinningBid || (ownBid == b.WinningBid && b.Winner == NoWinner) {
		b.Winner = b.Bidder
		b.WinningBid = ownBid
		b.TImg = tImg
	}
	b.TUpdate = t
	return b
}

// Pair identifies a (request, subtask) selection within a bundle or path
// (spec.md §3).
type Pair struct {
	RequestID    string `json:"request_id"`
	SubtaskIndex int    `json:"subtask_index"`
}

// Results maps request id to the full per-subtask bid array for that
// request (spec.md §4.6: "results: request_id → list of bids").
type Results map[string][]Bid

// Get returns the bid for pair p, and whether it exists.
func (r Results) Get(p Pair) (Bid, bool) {
	bids, ok := r[p.RequestID]
	if !ok || p.SubtaskIndex < 0 || p.SubtaskIndex >= len(bids) {
		return Bid{}, false
	}
	return bids[p.SubtaskIndex], true
}

// Set stores bid b at pair p, growing the backing slice if necessary.
func (r Results) Set(p Pair, b Bid) {
	bids := r[p.RequestID]
	for len(bids) <= p.SubtaskIndex {
		bids = append(bids, Bid{})
	}
	bids[p.SubtaskIndex] = b
	r[p.RequestID] = bids
}

// Others returns every bid for the request other than subtask index k, in
// subtask-index order (spec.md §4.6.7's "others").
func (r Results) Others(requestID string, k int) []Bid {
	bids := r[requestID]
	out := make([]Bid, 0, len(bids))
	for i, b := range bids {
		if i == k {
			continue
		}
		out = append(out, b)
	}
	return out
}

// NewBidArray materializes a full subtask bid array for a freshly-seen
// request, all subtasks at NoWinner (spec.md §4.6.2 stage 1).
func NewBidArray(req MeasurementRequest, bidder string, dtViolationMax float64, bidSoloMax, bidAnyMax int) []Bid {
	n := req.N()
	bids := make([]Bid, n)
	for k := 0; k < n; k++ {
		bids[k] = Bid{
			RequestID:        req.ID,
			SubtaskIndex:     k,
			MainMeasurement:  req.MeasurementGroups[k].Main,
			Dependencies:     append([]int{}, req.DependencyMatrix[k]...),
			TimeConstraints:  append([]float64{}, req.TimeDependencyMatrix[k]...),
			Bidder:           bidder,
			Winner:           NoWinner,
			WinningBid:       0,
			TImg:             -1,
			TUpdate:          -1,
			TViolation:       -1,
			DtViolationMax:   dtViolationMax,
			BidSoloRemaining: bidSoloMax,
			BidAnyRemaining:  bidAnyMax,
		}
	}
	return bids
}
