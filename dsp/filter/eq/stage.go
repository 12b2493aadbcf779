package eq

// Stage is a fixed series of filter nodes applied in order.
type Stage struct {
	nodes []*Node
}

// NewStage builds one node per entry of bands, chained in slice order.
func NewStage(bands []Settings, sampleRate float64, channels int) *Stage {
	s := &Stage{nodes: make([]*Node, len(bands))}
	for i, b := range bands {
		s.nodes[i] = NewNode(b, sampleRate, channels)
	}

	return s
}

// Len returns the number of nodes.
func (s *Stage) Len() int { return len(s.nodes) }

// Node returns the i-th node.
func (s *Stage) Node(i int) *Node { return s.nodes[i] }

// SetBand reconfigures node i in place. See [Node.Apply].
func (s *Stage) SetBand(i int, b Settings, at, smoothing float64) {
	s.nodes[i].Apply(b, at, smoothing)
}

// Process runs block through every node in order.
func (s *Stage) Process(block [][]float64, frame int64) {
	for _, n := range s.nodes {
		n.Process(block, frame)
	}
}

// FrequencyResponseDB returns the combined magnitude response at each
// frequency: the sum of every node's dB response.
func (s *Stage) FrequencyResponseDB(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		for _, n := range s.nodes {
			out[i] += n.MagnitudeDB(f)
		}
	}

	return out
}

// Reset clears the state of every node.
func (s *Stage) Reset() {
	for _, n := range s.nodes {
		n.Reset()
	}
}
