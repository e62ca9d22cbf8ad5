package blueprint

import (
	"encoding/json"
	"strings"
)

// MaxRepairPasses bounds the repair pipeline
const MaxRepairPasses = 5

// RepairFunc is one text transform of the repair pipeline
type RepairFunc func(string) string

// repairPasses are applied cumulatively, one per pass. CloseBrackets only runs
// on the final pass.
var repairPasses = []RepairFunc{
	QuoteBareKeys,
	RemoveTrailingCommas,
	NormalizeQuotes,
	InsertMissingCommas,
	CloseBrackets,
}

// Repair tries to turn almost-JSON into JSON. It returns the first text that
// parses and the number of passes applied, or ok=false after MaxRepairPasses.
func Repair(text string) (repaired string, passes int, ok bool) {
	if json.Valid([]byte(text)) {
		return text, 0, true
	}
	current := text
	for i, pass := range repairPasses {
		if i >= MaxRepairPasses {
			break
		}
		current = pass(current)
		if json.Valid([]byte(current)) {
			return current, i + 1, true
		}
	}
	return current, len(repairPasses), false
}

// scanner walks text tracking whether the cursor sits inside a string literal
type scanner struct {
	quote   byte
	escaped bool
}

// step consumes c and reports whether c is outside any string literal
func (s *scanner) step(c byte) bool {
	if s.quote != 0 {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == s.quote:
			s.quote = 0
		}
		return false
	}
	if c == '"' || c == '\'' {
		s.quote = c
		return false
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// lastNonSpace returns the last non-whitespace byte written to b, or 0
func lastNonSpace(b *strings.Builder) byte {
	s := b.String()
	for i := len(s) - 1; i >= 0; i-- {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

// QuoteBareKeys wraps unquoted object keys in double quotes
func QuoteBareKeys(text string) string {
	var b strings.Builder
	var sc scanner
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !sc.step(c) || !isIdentStart(c) {
			b.WriteByte(c)
			continue
		}
		prev := lastNonSpace(&b)
		j := i
		for j < len(text) && isIdentPart(text[j]) {
			j++
		}
		k := j
		for k < len(text) && isSpace(text[k]) {
			k++
		}
		if (prev == '{' || prev == ',') && k < len(text) && text[k] == ':' {
			b.WriteByte('"')
			b.WriteString(text[i:j])
			b.WriteByte('"')
		} else {
			b.WriteString(text[i:j])
		}
		i = j - 1
	}
	return b.String()
}

// RemoveTrailingCommas drops commas that directly precede a closing bracket
func RemoveTrailingCommas(text string) string {
	var b strings.Builder
	var sc scanner
	for i := 0; i < len(text); i++ {
		c := text[i]
		if sc.step(c) && c == ',' {
			k := i + 1
			for k < len(text) && isSpace(text[k]) {
				k++
			}
			if k < len(text) && (text[k] == '}' || text[k] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// NormalizeQuotes rewrites single-quoted strings as double-quoted strings.
// Apostrophes inside double-quoted strings are left alone.
func NormalizeQuotes(text string) string {
	var b strings.Builder
	inDouble, inSingle, escaped := false, false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inSingle:
			switch {
			case escaped:
				escaped = false
				if c != '\'' {
					b.WriteByte('\\')
				}
				b.WriteByte(c)
			case c == '\\':
				escaped = true
			case c == '\'':
				inSingle = false
				b.WriteByte('"')
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case inDouble:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inDouble = false
			}
			b.WriteByte(c)
		case c == '\'':
			inSingle = true
			b.WriteByte('"')
		default:
			if c == '"' {
				inDouble = true
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// InsertMissingCommas adds separators between adjacent values such as
// `"a" "b"`, `} {` or `] [`
func InsertMissingCommas(text string) string {
	var b strings.Builder
	var sc scanner
	for i := 0; i < len(text); i++ {
		c := text[i]
		wasInside := sc.quote != 0
		outside := sc.step(c)
		b.WriteByte(c)

		closedString := wasInside && sc.quote == 0 && c == '"'
		closedValue := outside && (c == '}' || c == ']' || (c >= '0' && c <= '9') || c == 'e' || c == 'l')
		if !closedString && !closedValue {
			continue
		}
		k := i + 1
		for k < len(text) && isSpace(text[k]) {
			k++
		}
		if k < len(text) && (text[k] == '"' || text[k] == '{' || text[k] == '[') {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// CloseBrackets terminates an unterminated string and closes every open
// brace and bracket, trimming a dangling separator first.
func CloseBrackets(text string) string {
	var stack []byte
	var sc scanner
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !sc.step(c) {
			continue
		}
		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := text
	if sc.quote != 0 {
		out += string(sc.quote)
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += " null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return out
}
