package strokes

import (
	"go.uber.org/zap"

	"github.com/teranos/marquee/logger"
)

// Board is the drawing engine: a fixed set of strokes decoded from a token.
type Board struct {
	strokes []Stroke
	running bool
}

// NewBoard wraps already decoded strokes in a running board.
func NewBoard(strokes []Stroke) *Board {
	return &Board{strokes: strokes, running: true}
}

// Load decodes token into a board. An empty token gives an empty running
// board. An invalid token gives an empty board that is not running, and the
// failure is logged as a warning.
func Load(token string, log *zap.SugaredLogger) *Board {
	if token == "" {
		return &Board{running: true}
	}
	strokes, err := Decode(token)
	if err != nil {
		if log == nil {
			log = logger.Logger
		}
		log.Warnw("Ignoring invalid draw token",
			logger.FieldSize, len(token),
			logger.FieldError, err,
		)
		return &Board{}
	}
	return NewBoard(strokes)
}

func (b *Board) IsRunning() bool { return b.running }

// Strokes returns a copy of the board's strokes.
func (b *Board) Strokes() []Stroke {
	out := make([]Stroke, len(b.strokes))
	copy(out, b.strokes)
	return out
}

// Points returns the total number of points across all strokes.
func (b *Board) Points() int {
	n := 0
	for _, s := range b.strokes {
		n += len(s.Points)
	}
	return n
}
