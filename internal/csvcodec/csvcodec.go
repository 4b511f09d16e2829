// Package csvcodec parses loosely-structured, human-edited spreadsheet
// exports into canonical character records, and renders records back out as
// comma-delimited text.
//
// The parser is deliberately forgiving: it fuzzy-matches header names,
// auto-detects comma vs. semicolon, scrubs unit text out of numbers, and
// coerces anything unparseable to a zero value instead of failing. The only
// thing that disqualifies a row is a missing name. Parsing never returns an
// error; callers judge success by the length of the result.
//
// Known limitation: rows are split on line boundaries before tokenization,
// so a quoted field cannot contain an embedded newline. The tokenizer is
// swappable (see LineTokenizer) should a strict RFC 4180 reader ever be
// needed, but the naive behavior is load-bearing for existing exports.
package csvcodec

import (
	"strconv"
	"strings"

	"charvault/pkg/models"
)

// Headers is the canonical column order used by Serialize.
var Headers = []string{
	"record", "name", "image", "pimage", "type", "release",
	"str_init", "agi_init", "sta_init",
	"str_mul_in", "agi_mul_in", "sta_mul_in",
	"bmv_str", "bmv_agi", "bmv_sta", "chinese",
}

// LineTokenizer splits one logical row into trimmed fields, given the
// delimiter detected for the whole document.
type LineTokenizer func(line string, delim byte) []string

// Parser turns delimited text into character records. The zero value is not
// usable; construct with NewParser.
type Parser struct {
	Tokenize LineTokenizer
}

func NewParser() *Parser {
	return &Parser{Tokenize: TokenizeDelimitedLine}
}

// Parse is shorthand for NewParser().Parse.
func Parse(text string) []models.Character {
	return NewParser().Parse(text)
}

// Parse converts a whole document into records. Rows without a name are
// dropped silently. Empty and header-only documents yield an empty slice.
func (p *Parser) Parse(text string) []models.Character {
	rows := splitRows(text)
	if len(rows) < 2 {
		return nil
	}

	delim := DetectDelimiter(rows[0])

	keys := make([]string, 0, 16)
	for _, cell := range p.Tokenize(rows[0], delim) {
		keys = append(keys, canonicalKey(normalizeHeaderCell(cell)))
	}

	out := make([]models.Character, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := p.Tokenize(row, delim)

		// zip by header position; extra values are ignored, missing
		// values leave their fields defaulted
		fields := make(map[string]string, len(keys))
		for i, key := range keys {
			if i >= len(values) {
				break
			}
			fields[key] = values[i]
		}

		if c, ok := assemble(fields); ok {
			out = append(out, c)
		}
	}
	return out
}

// DetectDelimiter picks the field separator for the whole document from its
// header line: semicolon only when the line has semicolons and no commas.
func DetectDelimiter(header string) byte {
	if strings.ContainsRune(header, ';') && !strings.ContainsRune(header, ',') {
		return ';'
	}
	return ','
}

// TokenizeDelimitedLine is the default LineTokenizer. Any quote character
// flips an in-quotes flag (opening and closing quotes are not
// distinguished); while the flag is set, delimiters are literal content.
// Quote characters themselves are consumed. Fields are trimmed.
func TokenizeDelimitedLine(line string, delim byte) []string {
	var fields []string
	var buf strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == rune(delim) && !inQuotes:
			fields = append(fields, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(buf.String()))
}

// splitRows breaks the document on CRLF-or-LF boundaries and discards
// whitespace-only lines, so blank rows never become empty records.
func splitRows(text string) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

func normalizeHeaderCell(cell string) string {
	return strings.ToLower(stripOuterQuotes(strings.TrimSpace(cell)))
}

type headerRule struct {
	match func(h string) bool
	key   string
}

func containsAll(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, s := range subs {
			if !strings.Contains(h, s) {
				return false
			}
		}
		return true
	}
}

func statInit(stat string) func(string) bool {
	return func(h string) bool {
		return strings.Contains(h, stat) &&
			(strings.Contains(h, "init") || strings.Contains(h, "base"))
	}
}

func equalsAny(names ...string) func(string) bool {
	return func(h string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}
}

// headerRules map normalized header cells to canonical field keys. Order
// matters: multiplier rules must win over init/base rules since spreadsheet
// headers like "str base mult" carry both substrings. First match wins.
var headerRules = []headerRule{
	{containsAll("str", "mul"), "str_mul_in"},
	{containsAll("agi", "mul"), "agi_mul_in"},
	{containsAll("sta", "mul"), "sta_mul_in"},
	{statInit("str"), "str_init"},
	{statInit("agi"), "agi_init"},
	{statInit("sta"), "sta_init"},
	{containsAll("str", "bmv"), "bmv_str"},
	{containsAll("agi", "bmv"), "bmv_agi"},
	{containsAll("sta", "bmv"), "bmv_sta"},
	{equalsAny("character", "outfit", "name"), "name"},
	{equalsAny("element"), "release"},
}

// canonicalKey resolves a normalized header cell to its canonical field
// key. Unrecognized headers pass through verbatim; they only matter if they
// happen to collide with a canonical name.
func canonicalKey(h string) string {
	for _, rule := range headerRules {
		if rule.match(h) {
			return rule.key
		}
	}
	return h
}

// CoerceNumber strips everything that is not a digit, minus sign, or
// decimal point, then parses the remainder as a float. Anything unparseable
// is 0, so "+0.65x" is 0.65 and "n/a" is 0.
func CoerceNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, raw)

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// CoerceBool treats TRUE/1/T/YES (any case) as true, everything else
// including the empty string as false.
func CoerceBool(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TRUE", "1", "T", "YES":
		return true
	}
	return false
}

// stripOuterQuotes removes one leading and one trailing literal quote from
// values whose quoting survived tokenization.
func stripOuterQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func cleanString(raw string) string {
	return stripOuterQuotes(strings.TrimSpace(raw))
}

// assemble coerces one row's fields into a record, rejecting rows without
// a name. A source "id" column is never honored; ids are assigned at
// persistence time.
func assemble(fields map[string]string) (models.Character, bool) {
	c := coerceFields(fields)
	if c.Name == "" {
		return models.Character{}, false
	}
	return c, true
}

// coerceFields applies per-key coercion and defaulting without the name
// gate. Numeric fields coerce to 0 whenever absent or malformed, so every
// record carries well-defined numbers no matter which headers the source
// file had; the typed struct rules out NaN-as-absent states by
// construction.
func coerceFields(fields map[string]string) models.Character {
	c := models.Character{
		Name:    cleanString(fields["name"]),
		Record:  cleanString(fields["record"]),
		Image:   cleanString(fields["image"]),
		PImage:  cleanString(fields["pimage"]),
		Type:    cleanString(fields["type"]),
		Release: cleanString(fields["release"]),
		StrInit: CoerceNumber(fields["str_init"]),
		AgiInit: CoerceNumber(fields["agi_init"]),
		StaInit: CoerceNumber(fields["sta_init"]),
		StrMul:  CoerceNumber(fields["str_mul_in"]),
		AgiMul:  CoerceNumber(fields["agi_mul_in"]),
		StaMul:  CoerceNumber(fields["sta_mul_in"]),
		BmvStr:  CoerceNumber(fields["bmv_str"]),
		BmvAgi:  CoerceNumber(fields["bmv_agi"]),
		BmvSta:  CoerceNumber(fields["bmv_sta"]),
		Chinese: CoerceBool(fields["chinese"]),
	}

	if c.Type == "" {
		c.Type = models.DefaultType
	}
	if c.Release == "" {
		c.Release = models.DefaultRelease
	}
	return c
}

// FromFields builds a record from raw key/value pairs using the same
// header mapping and coercion rules as CSV rows. The bool reports whether
// the input carried a usable name; the record is returned either way so
// callers can surface partial suggestions. AI-sourced fields go through
// here, so untrusted estimates obey the exact CSV coercion contract.
func FromFields(raw map[string]string) (models.Character, bool) {
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		fields[canonicalKey(normalizeHeaderCell(k))] = v
	}

	c := coerceFields(fields)
	return c, c.Name != ""
}

// Serialize renders records as comma-delimited text in canonical column
// order, regardless of what delimiter an import used. Strings are quoted
// with internal quotes doubled, numbers are unquoted, and the chinese flag
// renders as the literal text TRUE or FALSE, which CoerceBool reads back.
func Serialize(chars []models.Character) string {
	var b strings.Builder
	b.WriteString(strings.Join(Headers, ","))

	for _, c := range chars {
		b.WriteByte('\n')
		for i, h := range Headers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(renderField(c, h))
		}
	}
	return b.String()
}

func renderField(c models.Character, key string) string {
	switch key {
	case "record":
		return quote(c.Record)
	case "name":
		return quote(c.Name)
	case "image":
		return quote(c.Image)
	case "pimage":
		return quote(c.PImage)
	case "type":
		return quote(c.Type)
	case "release":
		return quote(c.Release)
	case "str_init":
		return formatNumber(c.StrInit)
	case "agi_init":
		return formatNumber(c.AgiInit)
	case "sta_init":
		return formatNumber(c.StaInit)
	case "str_mul_in":
		return formatNumber(c.StrMul)
	case "agi_mul_in":
		return formatNumber(c.AgiMul)
	case "sta_mul_in":
		return formatNumber(c.StaMul)
	case "bmv_str":
		return formatNumber(c.BmvStr)
	case "bmv_agi":
		return formatNumber(c.BmvAgi)
	case "bmv_sta":
		return formatNumber(c.BmvSta)
	case "chinese":
		if c.Chinese {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
