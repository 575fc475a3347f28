package engine

import "github.com/UGZ6/in-shadow-trader/internal/dto"

// BarStream supplies bars one at a time, for inputs that arrive in bounded
// chunks instead of a single slice. Next returns the next bar and true, or
// a zero bar and false once the stream is exhausted.
type BarStream interface {
	Next() (dto.Bar, bool, error)
}

// SliceStream adapts an in-memory slice to the BarStream interface.
type SliceStream struct {
	bars []dto.Bar
	idx  int
}

func NewSliceStream(bars []dto.Bar) *SliceStream {
	return &SliceStream{bars: bars}
}

func (s *SliceStream) Next() (dto.Bar, bool, error) {
	if s.idx >= len(s.bars) {
		return dto.Bar{}, false, nil
	}
	bar := s.bars[s.idx]
	s.idx++
	return bar, true, nil
}
