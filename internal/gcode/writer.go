package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/geom"
)

// Epsilon is the smallest change in a modal value that is re-emitted.
const Epsilon = 1e-6

// DefaultPrecision is the number of decimals used for axis words.
const DefaultPrecision = 3

// Word is a single address letter with its formatted value.
type Word struct {
	Letter byte
	Value  string
}

// NewWord upper-cases the letter and rejects anything outside A-Z.
func NewWord(letter byte, value string) (Word, error) {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return Word{}, cam.InvalidArgument(fmt.Sprintf("invalid word letter '%c'", letter))
	}
	return Word{Letter: letter, Value: value}, nil
}

// FloatWord formats value with FormatFloat at the given precision.
func FloatWord(letter byte, value float64, precision int) (Word, error) {
	return NewWord(letter, FormatFloat(value, precision))
}

func (w Word) String() string {
	return string(w.Letter) + w.Value
}

// Block is one line of a program.
type Block struct {
	Words   []Word
	Comment string
}

func (b Block) String() string {
	parts := make([]string, 0, len(b.Words)+1)
	for _, w := range b.Words {
		parts = append(parts, w.String())
	}
	if b.Comment != "" {
		parts = append(parts, "("+b.Comment+")")
	}
	return strings.Join(parts, " ")
}

// Program is an ordered list of blocks.
type Program struct {
	Blocks []Block
}

func (p *Program) Push(b Block) {
	p.Blocks = append(p.Blocks, b)
}

// String renders one block per line without a trailing newline.
func (p *Program) String() string {
	lines := make([]string, len(p.Blocks))
	for i, b := range p.Blocks {
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// MotionMode is the active G0/G1 mode.
type MotionMode int

const (
	MotionRapid MotionMode = iota
	MotionLinear
)

func (m MotionMode) code() string {
	if m == MotionLinear {
		return "1"
	}
	return "0"
}

// modalState is what the controller remembers between blocks.
type modalState struct {
	motion  *MotionMode
	feed    *float64
	spindle *float64
}

// Writer emits a program while tracking modal state so that every block only
// carries the words that changed.
type Writer struct {
	precision    int
	state        modalState
	lastPosition *geom.Point3
	program      Program
}

// NewWriter returns a writer with three decimals of axis precision.
func NewWriter() *Writer {
	return &Writer{precision: DefaultPrecision}
}

// WithPrecision sets the axis precision, at least one decimal.
func (w *Writer) WithPrecision(precision int) *Writer {
	if precision < 1 {
		precision = 1
	}
	w.precision = precision
	return w
}

// StartProgram emits the millimetre, absolute, feed-per-minute preamble.
func (w *Writer) StartProgram() error {
	var b blockBuilder
	for _, code := range []string{"21", "90", "94"} {
		if err := b.add('G', code); err != nil {
			return err
		}
	}
	w.program.Push(b.build())
	return nil
}

// commentText drops characters that would close a parenthesised comment or
// split the block across lines.
var commentText = strings.NewReplacer("(", "", ")", "", "\r", " ", "\n", " ")

// Comment pushes a comment-only block. Parentheses and line breaks in text are
// removed.
func (w *Writer) Comment(text string) {
	w.program.Push(Block{Comment: strings.TrimSpace(commentText.Replace(text))})
}

// SetSpindle starts the spindle clockwise. Repeating the current speed emits
// nothing.
func (w *Writer) SetSpindle(rpm float64) error {
	if rpm <= 0 {
		return cam.InvalidArgument("spindle RPM must be positive")
	}
	if w.state.spindle != nil && math.Abs(*w.state.spindle-rpm) < Epsilon {
		return nil
	}
	var b blockBuilder
	if err := b.add('M', "3"); err != nil {
		return err
	}
	if err := b.addFloat('S', rpm, 0); err != nil {
		return err
	}
	w.program.Push(b.build())
	w.state.spindle = &rpm
	return nil
}

// StopSpindle emits M5.
func (w *Writer) StopSpindle() error {
	var b blockBuilder
	if err := b.add('M', "5"); err != nil {
		return err
	}
	w.program.Push(b.build())
	w.state.spindle = nil
	return nil
}

// Motion emits a G0 or G1 move to the target. The motion word, each axis word
// and the feed word are only written when they differ from the modal state.
// A move that changes nothing updates the position without a block.
func (w *Writer) Motion(mode MotionMode, to geom.Point3, feed *float64) error {
	var b blockBuilder
	if w.state.motion == nil || *w.state.motion != mode {
		if err := b.add('G', mode.code()); err != nil {
			return err
		}
		m := mode
		w.state.motion = &m
	}

	axes := []struct {
		letter   byte
		last, to float64
	}{
		{'X', 0, to.X},
		{'Y', 0, to.Y},
		{'Z', 0, to.Z},
	}
	if w.lastPosition != nil {
		axes[0].last = w.lastPosition.X
		axes[1].last = w.lastPosition.Y
		axes[2].last = w.lastPosition.Z
	}
	for _, a := range axes {
		if w.lastPosition != nil && math.Abs(a.last-a.to) <= Epsilon {
			continue
		}
		if err := b.addFloat(a.letter, a.to, w.precision); err != nil {
			return err
		}
	}

	if feed != nil {
		f := *feed
		if f <= 0 {
			return cam.InvalidArgument("feed rate must be positive")
		}
		if w.state.feed == nil || math.Abs(*w.state.feed-f) > Epsilon {
			if err := b.addFloat('F', f, 2); err != nil {
				return err
			}
			w.state.feed = &f
		}
	}

	pos := to
	w.lastPosition = &pos
	if b.empty() {
		return nil
	}
	w.program.Push(b.build())
	return nil
}

// Dwell emits G4 with the pause in seconds.
func (w *Writer) Dwell(seconds float64) error {
	if seconds <= 0 {
		return cam.InvalidArgument("dwell duration must be positive")
	}
	var b blockBuilder
	if err := b.add('G', "4"); err != nil {
		return err
	}
	if err := b.addFloat('P', seconds, 3); err != nil {
		return err
	}
	w.program.Push(b.build())
	return nil
}

// EndProgram emits M2.
func (w *Writer) EndProgram() error {
	var b blockBuilder
	if err := b.add('M', "2"); err != nil {
		return err
	}
	w.program.Push(b.build())
	return nil
}

// Finish returns the program built so far.
func (w *Writer) Finish() *Program {
	p := w.program
	return &p
}

// blockBuilder enforces the per-block rules: a non-G letter appears once and
// at most one distinct motion code is present.
type blockBuilder struct {
	words      []Word
	motionWord string
	used       []byte
}

func (b *blockBuilder) add(letter byte, value string) error {
	w, err := NewWord(letter, value)
	if err != nil {
		return err
	}
	return b.addWord(w)
}

func (b *blockBuilder) addFloat(letter byte, value float64, precision int) error {
	return b.add(letter, FormatFloat(value, precision))
}

func (b *blockBuilder) addWord(w Word) error {
	if w.Letter != 'G' {
		for _, l := range b.used {
			if l == w.Letter {
				return cam.InvalidArgument(fmt.Sprintf("letter %c emitted twice in single block", w.Letter))
			}
		}
		b.used = append(b.used, w.Letter)
		b.words = append(b.words, w)
		return nil
	}

	if b.motionWord != "" {
		if isMotionCode(w.Value) && w.Value != b.motionWord {
			return cam.InvalidArgument("multiple motion words in one block")
		}
	} else if isMotionCode(w.Value) {
		b.motionWord = w.Value
	}
	b.words = append(b.words, w)
	return nil
}

func (b *blockBuilder) empty() bool {
	return len(b.words) == 0
}

func (b *blockBuilder) build() Block {
	return Block{Words: b.words}
}

func isMotionCode(v string) bool {
	return v == "0" || v == "1"
}

// FormatFloat renders value with at most precision decimals, trimming
// trailing zeros and a bare decimal point. Negative zero prints as "0".
func FormatFloat(value float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(value, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" || s == "-" || s == "" {
		s = "0"
	}
	return s
}
