package repository

// LadderOption applies a configuration option to the TreapLadder.
type LadderOption func(*TreapLadder)

// WithWinPoints sets the premiership points awarded for a win.
func WithWinPoints(points int) LadderOption {
	return func(l *TreapLadder) {
		if points > 0 {
			l.winPoints = points
		}
	}
}

// WithDrawPoints sets the premiership points awarded for a draw.
func WithDrawPoints(points int) LadderOption {
	return func(l *TreapLadder) {
		if points >= 0 {
			l.drawPoints = points
		}
	}
}

// ResultOption applies a configuration option to the MemoryResultStore.
type ResultOption func(*MemoryResultStore)

// WithMaxResults bounds the number of kept results. The oldest result is
// evicted first.
func WithMaxResults(n int) ResultOption {
	return func(s *MemoryResultStore) {
		if n > 0 {
			s.maxResults = n
		}
	}
}
