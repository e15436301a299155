package gcode

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/geom"
)

// MoveType classifies a move read back from a program.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0 travel
	MoveFeed                    // G1 with XY movement
	MovePlunge                  // G1 straight down
	MoveRetract                 // any straight lift
	MoveDwell                   // G4 pause
)

func (t MoveType) String() string {
	switch t {
	case MoveRapid:
		return "rapid"
	case MoveFeed:
		return "feed"
	case MovePlunge:
		return "plunge"
	case MoveRetract:
		return "retract"
	case MoveDwell:
		return "dwell"
	default:
		return "unknown"
	}
}

// Move is one motion decoded from a program, with absolute endpoints.
type Move struct {
	Type     MoveType
	Rapid    bool
	Line     int
	From     geom.Point3
	To       geom.Point3
	FeedRate float64
	Seconds  float64
}

var wordRe = regexp.MustCompile(`([A-Z])([-+]?\d*\.?\d+)`)

// ReadProgram decodes the motions of a program. Motion modes, axes and feed
// are modal, so a block carrying only axis words repeats the last G0/G1. The
// machine is assumed to start at the origin.
func ReadProgram(code string) []Move {
	var (
		moves []Move
		cur   geom.Point3
		feed  float64
		mode  = -1
	)

	for i, raw := range strings.Split(code, "\n") {
		line := strings.ToUpper(stripComments(raw))
		if line == "" {
			continue
		}

		next := cur
		nextFeed := feed
		hasAxis := false
		dwell := -1.0
		for _, m := range wordRe.FindAllStringSubmatch(line, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "G":
				switch val {
				case 0, 1:
					mode = int(val)
				case 4:
					dwell = 0
				}
			case "P":
				if dwell >= 0 {
					dwell = val
				}
			case "X":
				next.X, hasAxis = val, true
			case "Y":
				next.Y, hasAxis = val, true
			case "Z":
				next.Z, hasAxis = val, true
			case "F":
				nextFeed = val
			}
		}
		feed = nextFeed

		if dwell >= 0 {
			moves = append(moves, Move{Type: MoveDwell, Line: i + 1, From: cur, To: cur, Seconds: dwell})
			continue
		}
		if !hasAxis || mode < 0 {
			continue
		}

		moves = append(moves, Move{
			Type:     classifyMove(mode == 0, cur, next),
			Rapid:    mode == 0,
			Line:     i + 1,
			From:     cur,
			To:       next,
			FeedRate: feed,
		})
		cur = next
	}
	return moves
}

// stripComments removes parenthetical and semicolon comments.
func stripComments(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	var b strings.Builder
	depth := 0
	for _, ch := range line {
		switch {
		case ch == '(':
			depth++
		case ch == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}

// classifyMove determines the MoveType from the travel direction.
func classifyMove(isRapid bool, from, to geom.Point3) MoveType {
	zDelta := to.Z - from.Z
	hasXY := from.X != to.X || from.Y != to.Y

	switch {
	case zDelta > 0.001 && !hasXY:
		return MoveRetract
	case isRapid:
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		return MovePlunge
	default:
		return MoveFeed
	}
}

// Summary aggregates the moves of a program.
type Summary struct {
	Counts      map[MoveType]int
	RapidLength float64
	CutLength   float64
	DwellTime   float64
	MinZ        float64
	MaxZ        float64
}

// Summarize counts moves by type and sums travel lengths.
func Summarize(moves []Move) Summary {
	s := Summary{Counts: make(map[MoveType]int), MinZ: math.Inf(1), MaxZ: math.Inf(-1)}
	for _, m := range moves {
		s.Counts[m.Type]++
		if m.Type == MoveDwell {
			s.DwellTime += m.Seconds
			continue
		}
		d := m.From.DistanceTo(m.To)
		if m.Rapid {
			s.RapidLength += d
		} else {
			s.CutLength += d
		}
		s.MinZ = math.Min(s.MinZ, m.To.Z)
		s.MaxZ = math.Max(s.MaxZ, m.To.Z)
	}
	if len(moves) == 0 {
		s.MinZ, s.MaxZ = 0, 0
	}
	return s
}

// ToToolpath rebuilds a toolpath from decoded moves.
func ToToolpath(name string, safeZ float64, moves []Move) *cam.Toolpath {
	tp := cam.NewToolpath(name, safeZ)
	for _, m := range moves {
		switch {
		case m.Type == MoveDwell:
			tp.Push(cam.Dwell(m.Seconds))
		case m.Rapid:
			tp.Push(cam.Rapid(m.To))
		default:
			tp.Push(cam.Feed(m.To, m.FeedRate))
		}
	}
	return tp
}
