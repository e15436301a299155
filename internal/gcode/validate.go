package gcode

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/piwi3910/slabcam/internal/cam"
)

var (
	supportedG = map[string]bool{"0": true, "1": true, "4": true, "21": true, "90": true, "94": true}
	supportedM = map[string]bool{"2": true, "3": true, "5": true}
)

// Validate checks that a program only uses the words this package emits and
// that it ends with M2. Line numbers in errors count from 1 and include blank
// lines.
func Validate(program string) error {
	if strings.TrimSpace(program) == "" {
		return cam.InvalidInput("program is empty")
	}

	hasEnd := false
	for i, raw := range strings.Split(program, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineNo := i + 1

		var (
			token     strings.Builder
			inComment bool
			seen      = make(map[rune]bool)
		)
		for _, ch := range line {
			if inComment {
				if ch == ')' {
					inComment = false
				}
				continue
			}
			if ch == '(' {
				inComment = true
				continue
			}
			if unicode.IsSpace(ch) {
				if err := validateToken(token.String(), lineNo, seen); err != nil {
					return err
				}
				hasEnd = hasEnd || isProgramEnd(token.String())
				token.Reset()
				continue
			}
			token.WriteRune(ch)
		}
		if err := validateToken(token.String(), lineNo, seen); err != nil {
			return err
		}
		hasEnd = hasEnd || isProgramEnd(token.String())
	}

	if !hasEnd {
		return cam.InvalidInput("program missing M2 end")
	}
	return nil
}

func validateToken(token string, line int, seen map[rune]bool) error {
	if token == "" {
		return nil
	}
	letter := rune(token[0])
	rest := token[1:]
	if letter > unicode.MaxASCII || !unicode.IsLetter(letter) {
		return cam.InvalidInput(fmt.Sprintf("line %d: invalid token '%s'", line, token))
	}
	letter = unicode.ToUpper(letter)

	if letter != 'G' {
		if seen[letter] {
			return cam.InvalidInput(fmt.Sprintf("line %d: repeated letter '%c'", line, letter))
		}
		seen[letter] = true
	}

	switch letter {
	case 'G':
		if !supportedG[rest] {
			return cam.InvalidInput(fmt.Sprintf("line %d: unsupported G-code %s", line, rest))
		}
	case 'M':
		if !supportedM[rest] {
			return cam.InvalidInput(fmt.Sprintf("line %d: unsupported M-code %s", line, rest))
		}
	case 'X', 'Y', 'Z', 'F', 'S', 'P':
		if _, err := strconv.ParseFloat(rest, 64); err != nil {
			return cam.InvalidInput(fmt.Sprintf("line %d: expected numeric value after %c", line, letter))
		}
	default:
		return cam.InvalidInput(fmt.Sprintf("line %d: unsupported address %c", line, letter))
	}
	return nil
}

// isProgramEnd reports whether an already validated token is the M2 word.
func isProgramEnd(token string) bool {
	return len(token) == 2 && unicode.ToUpper(rune(token[0])) == 'M' && token[1] == '2'
}
