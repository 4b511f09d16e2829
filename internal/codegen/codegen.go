// Package codegen renders character records into the game engine's C#
// Outfit object-literal syntax, ready to paste into its List<Outfit>.
package codegen

import (
	"math"
	"strconv"
	"strings"
	"text/template"

	"charvault/pkg/models"
)

// staticEntry is the engine's anchor outfit. It always occupies id 0, so
// generated entries are resequenced from 1.
const staticEntry = `new Outfit
{
    id = 0,
    record = new int[3] { 1, 2, 1 },
    name = "Ggio Vega",
    image = Resources.GgioVega,
    pimage = Resources.PGgioVega,
    type = "Grey",
    release = "Wind",
    str_init = 13,
    agi_init = 22,
    sta_init = 13,
    str_mul_init = 0.65,
    agi_mul_init = 1.1,
    sta_mul_init = 0.65,
    bmv_str = 17,
    bmv_agi = 10,
    bmv_sta = 14
},`

var outfitTmpl = template.Must(template.New("outfit").Parse(`new Outfit
{
    id = {{.ID}},
    record = new int[3] { {{.Record}} },
    name = "{{.Name}}",
    image = Resources.{{.Resource}},
    pimage = Resources.P{{.Resource}},
    type = "{{.Type}}",
    release = "{{.Release}}",
    str_init = {{.StrInit}},
    agi_init = {{.AgiInit}},
    sta_init = {{.StaInit}},
    str_mul_init = {{.StrMul}},
    agi_mul_init = {{.AgiMul}},
    sta_mul_init = {{.StaMul}},
    bmv_str = {{.BmvStr}},
    bmv_agi = {{.BmvAgi}},
    bmv_sta = {{.BmvSta}}
},`))

type outfitView struct {
	ID       int
	Record   string
	Name     string
	Resource string
	Type     string
	Release  string
	StrInit  string
	AgiInit  string
	StaInit  string
	StrMul   string
	AgiMul   string
	StaMul   string
	BmvStr   string
	BmvAgi   string
	BmvSta   string
}

// Render emits the static anchor entry followed by one Outfit literal per
// record, resequenced from id 1 in input order.
func Render(chars []models.Character) string {
	var b strings.Builder
	b.WriteString(staticEntry)

	for i, c := range chars {
		b.WriteByte('\n')
		// template errors are impossible here: the view is all strings
		_ = outfitTmpl.Execute(&b, viewFor(i+1, c))
	}
	return b.String()
}

func viewFor(id int, c models.Character) outfitView {
	return outfitView{
		ID:       id,
		Record:   recordTriple(c.Record),
		Name:     c.Name,
		Resource: models.ResourceName(c.Name),
		Type:     c.Type,
		Release:  fallbackStr(c.Release, "None"),
		StrInit:  number(fallbackNum(c.StrInit, 10)),
		AgiInit:  number(fallbackNum(c.AgiInit, 10)),
		StaInit:  number(fallbackNum(c.StaInit, 10)),
		StrMul:   number(roundMul(c.StrMul)),
		AgiMul:   number(roundMul(c.AgiMul)),
		StaMul:   number(roundMul(c.StaMul)),
		BmvStr:   number(fallbackNum(c.BmvStr, 15)),
		BmvAgi:   number(fallbackNum(c.BmvAgi, 15)),
		BmvSta:   number(fallbackNum(c.BmvSta, 15)),
	}
}

// recordTriple turns the free-text "a/b/c" code into C# array elements.
// Unset records fall back to the engine's 0/0/0 placeholder.
func recordTriple(record string) string {
	if record == "" {
		record = "0/0/0"
	}
	parts := strings.Split(record, "/")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// roundMul keeps at most two decimals, dropping trailing zeros.
func roundMul(v float64) float64 {
	return math.Round(v*100) / 100
}

func fallbackNum(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func fallbackStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
