package chart

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errNumberFormat = errors.New("invalid number format")

// rxSpecifier parses [[fill]align][sign][symbol][0][width][,][.precision][~][type].
var rxSpecifier = regexp.MustCompile(`^(?:(.)?([<>=^]))?([+\-( ])?([$#])?(0)?(\d+)?(,)?(\.\d+)?(~)?([a-z%])?$`)

const noPrecision = -1

// NumberFormat formats numbers with a d3-like specifier such as "$,d", ",.1%" or ".2f".
//
// Supported types are d, f, %, e, g, r, s and none. Grouping uses the english locale.
type NumberFormat struct {
	spec      string
	fill      string
	align     byte
	sign      byte
	symbol    string
	zero      bool
	width     int
	comma     bool
	precision int
	trim      bool
	typ       byte
}

// ParseNumberFormat compiles a number format specifier.
func ParseNumberFormat(spec string) (NumberFormat, error) {
	m := rxSpecifier.FindStringSubmatch(spec)
	if m == nil {
		return NumberFormat{}, fmt.Errorf("%q: %w", spec, errNumberFormat)
	}

	f := NumberFormat{
		spec:      spec,
		fill:      " ",
		align:     '>',
		sign:      '-',
		symbol:    m[4],
		zero:      m[5] != "",
		comma:     m[7] != "",
		precision: noPrecision,
		trim:      m[9] != "",
	}

	if m[1] != "" {
		f.fill = m[1]
	}
	if m[2] != "" {
		f.align = m[2][0]
	}
	if m[3] != "" {
		f.sign = m[3][0]
	}
	if m[6] != "" {
		f.width, _ = strconv.Atoi(m[6])
	}
	if m[8] != "" {
		f.precision, _ = strconv.Atoi(m[8][1:])
	}
	if m[10] != "" {
		f.typ = m[10][0]
	}

	switch f.typ {
	case 0, 'd', 'f', '%', 'e', 'g', 'r', 's':
	default:
		return NumberFormat{}, fmt.Errorf("unsupported type %c in %q: %w", f.typ, spec, errNumberFormat)
	}

	if f.zero {
		f.fill = "0"
		f.align = '='
	}

	return f, nil
}

// MustNumberFormat is like [ParseNumberFormat] but panics on an invalid specifier.
func MustNumberFormat(spec string) NumberFormat {
	f, err := ParseNumberFormat(spec)
	if err != nil {
		panic(err)
	}

	return f
}

// FormatNumber formats v with spec, falling back on the shortest decimal representation when
// the specifier is invalid.
func FormatNumber(spec string, v float64) string {
	f, err := ParseNumberFormat(spec)
	if err != nil {
		f, _ = ParseNumberFormat("")
	}

	return f.Format(v)
}

func (f NumberFormat) String() string {
	return f.spec
}

// HasPrecision tells if the specifier sets an explicit precision.
func (f NumberFormat) HasPrecision() bool {
	return f.precision != noPrecision
}

// WithPrecision yields a copy of the format with the given precision.
func (f NumberFormat) WithPrecision(precision int) NumberFormat {
	f.precision = max(0, precision)

	return f
}

// Type yields the format type, or 0 when none is set.
func (f NumberFormat) Type() byte {
	return f.typ
}

// Format renders v.
func (f NumberFormat) Format(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}

	negative := v < 0
	abs := math.Abs(v)

	var body, suffix string
	switch f.typ {
	case 'd':
		body = f.fixed(math.Round(abs), 0)
	case 'f':
		body = f.fixed(abs, f.precisionOr(6))
	case '%':
		body = f.fixed(abs*100, f.precisionOr(6))
		suffix = "%"
	case 'e':
		body = exponent(strconv.FormatFloat(abs, 'e', f.precisionOr(6), 64))
	case 'g', 'r', 's':
		body = exponent(strconv.FormatFloat(abs, 'g', max(1, f.precisionOr(6)), 64))
	default:
		if f.HasPrecision() {
			body = exponent(strconv.FormatFloat(abs, 'g', max(1, f.precision), 64))
		} else {
			body = f.group(strconv.FormatFloat(abs, 'f', -1, 64))
		}
	}

	if f.trim {
		body = trimZeros(body)
	}

	if negative && isZeroString(body) {
		negative = false
	}

	prefix := f.signOf(negative) + f.prefixSymbol()
	if negative && f.sign == '(' {
		suffix += ")"
	}

	return f.pad(prefix, body, suffix)
}

func (f NumberFormat) precisionOr(def int) int {
	if f.HasPrecision() {
		return f.precision
	}

	return def
}

var printer = message.NewPrinter(language.English)

func (f NumberFormat) fixed(abs float64, precision int) string {
	if !f.comma {
		return strconv.FormatFloat(abs, 'f', precision, 64)
	}

	return printer.Sprintf("%."+strconv.Itoa(precision)+"f", abs)
}

// group inserts thousands separators in the integer part of a decimal string.
func (f NumberFormat) group(s string) string {
	if !f.comma {
		return s
	}

	integer, fraction, found := strings.Cut(s, ".")
	n, err := strconv.ParseInt(integer, 10, 64)
	if err != nil {
		return s
	}

	integer = printer.Sprintf("%d", n)
	if !found {
		return integer
	}

	return integer + "." + fraction
}

func (f NumberFormat) signOf(negative bool) string {
	switch {
	case negative && f.sign == '(':
		return "("
	case negative:
		return "-"
	case f.sign == '+':
		return "+"
	case f.sign == ' ':
		return " "
	default:
		return ""
	}
}

func (f NumberFormat) prefixSymbol() string {
	if f.symbol == "$" {
		return "$"
	}

	return ""
}

func (f NumberFormat) pad(prefix, body, suffix string) string {
	length := utf8.RuneCountInString(prefix) + utf8.RuneCountInString(body) + utf8.RuneCountInString(suffix)
	if length >= f.width {
		return prefix + body + suffix
	}

	padding := strings.Repeat(f.fill, f.width-length)
	switch f.align {
	case '<':
		return prefix + body + suffix + padding
	case '=':
		return prefix + padding + body + suffix
	case '^':
		half := (f.width - length) / 2

		return padding[:half*len(f.fill)] + prefix + body + suffix + padding[half*len(f.fill):]
	default:
		return padding + prefix + body + suffix
	}
}

// exponent rewrites a go exponent notation (1.5e+03) the short way (1.5e+3).
func exponent(s string) string {
	mantissa, exp, found := strings.Cut(s, "e")
	if !found || len(exp) < 2 {
		return s
	}

	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}

	return mantissa + "e" + sign + digits
}

func trimZeros(s string) string {
	mantissa, exp, hasExp := strings.Cut(s, "e")
	if strings.Contains(mantissa, ".") {
		mantissa = strings.TrimRight(mantissa, "0")
		mantissa = strings.TrimSuffix(mantissa, ".")
	}

	if hasExp {
		return mantissa + "e" + exp
	}

	return mantissa
}

func isZeroString(s string) bool {
	for _, r := range s {
		switch r {
		case '0', '.', ',':
		case 'e':
			return true
		default:
			return false
		}
	}

	return true
}

// tickFormat yields a format suited to ticks of a linear domain. When the specifier sets
// no precision, the precision is derived from the tick step.
func tickFormat(spec string, domain [2]float64, count int) NumberFormat {
	f, err := ParseNumberFormat(spec)
	if err != nil {
		f, _ = ParseNumberFormat("")
	}

	if f.HasPrecision() {
		return f
	}

	step := tickStep(domain[0], domain[1], count)
	if !isFinite(step) || step <= 0 {
		return f
	}

	precision := max(0, -int(math.Floor(math.Log10(step))))
	switch f.typ {
	case 'f':
		return f.WithPrecision(precision)
	case '%':
		return f.WithPrecision(precision - 2)
	case 0:
		return f.withType('f').WithPrecision(precision)
	default:
		return f
	}
}

func (f NumberFormat) withType(t byte) NumberFormat {
	f.typ = t

	return f
}
