package usecase

// RunSequence implements SequenceGenerator for a single pipeline run.
// It is not safe for concurrent use; the pipeline is single-threaded.
type RunSequence struct {
	n int64
}

// NewRunSequence creates a sequence starting at 1.
func NewRunSequence() *RunSequence {
	return &RunSequence{}
}

// Next returns the next global sequence number.
func (s *RunSequence) Next() int64 {
	s.n++
	return s.n
}
