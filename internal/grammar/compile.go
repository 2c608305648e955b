// Package grammar compiles a RecordFormat into the automata used to find
// value boundaries: a quoted pattern per quote pair, a plain value pattern
// and a backward separator-rewind pattern.
package grammar

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shapestone/shape-dsv/pkg/format"
)

const cacheSize = 256

var (
	grammars = mustCache[string, *Grammar]()
	quotes   = mustCache[format.QuotePair, *quoteParts]()
)

func mustCache[K comparable, V any]() *lru.Cache[K, V] {
	c, err := lru.New[K, V](cacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Grammar holds the compiled patterns of one normalized RecordFormat.
// It is immutable and may be shared by any number of parsers.
type Grammar struct {
	Format format.RecordFormat

	Prefix          []rune
	Suffix          []rune
	ValueSeparator  []rune
	RecordSeparator []rune

	Quotes []*Quote

	// Plain matches a run of characters up to the next delimiter.
	Plain *Pattern
	// Rewind is the reversed delimiter set, used to give back the one
	// delimiter a quoted pattern reads past the closing quote.
	Rewind *Pattern
}

// Quote is the compiled form of one quote pair.
type Quote struct {
	Pair  format.QuotePair
	Left  []rune
	Right []rune

	// Closed matches [ws] left content right [ws] followed by a delimiter
	// or the end of input. The delimiter is included in the match.
	Closed *Pattern
	// Improper matches [ws] left content running to the end of input.
	Improper *Pattern
	// Content matches left followed by the longest run of quoted content.
	Content *Pattern

	unescaper *strings.Replacer
}

type quoteParts struct {
	content   expr
	pattern   *Pattern
	unescaper *strings.Replacer
}

// Compile returns the grammar of f, reusing a cached one when a format with
// the same normalized settings was compiled before.
func Compile(f format.RecordFormat) *Grammar {
	key := f.Key()
	if g, ok := grammars.Get(key); ok {
		return g
	}
	g := compileGrammar(f.Normalized())
	grammars.Add(key, g)
	return g
}

func compileGrammar(f format.RecordFormat) *Grammar {
	g := &Grammar{
		Format:          f,
		Prefix:          []rune(f.Prefix),
		Suffix:          []rune(f.Suffix),
		ValueSeparator:  []rune(f.ValueSeparator),
		RecordSeparator: []rune(f.RecordSeparator),
	}

	ahead := g.delimiterLiterals()
	if len(ahead) == 0 {
		// Nothing can end a value: every position is a boundary.
		g.Plain = compile(catExpr{}, false)
	} else {
		g.Plain = compile(starExpr{catExpr{notAheadExpr(ahead), anyExpr{}}}, false)
	}

	var behind altExpr
	for _, lit := range [][]rune{
		g.RecordSeparator,
		g.ValueSeparator,
		concat(g.Suffix, g.RecordSeparator),
		g.Suffix,
	} {
		if len(lit) > 0 {
			behind = append(behind, litExpr(reversed(lit)))
		}
	}
	if len(behind) == 0 {
		g.Rewind = compile(notAheadExpr{{}}, true)
	} else {
		g.Rewind = compile(behind, true)
	}

	delim := g.delimiterExpr()
	for _, pair := range f.QuotePairs {
		parts := partsFor(pair)
		left, right := litExpr(pair.Left), litExpr(pair.Right)
		var ws expr = catExpr{}
		if f.TrimWhitespace {
			ws = starExpr{altExpr{litExpr{' '}, litExpr{'\t'}}}
		}
		g.Quotes = append(g.Quotes, &Quote{
			Pair:      pair,
			Left:      []rune(pair.Left),
			Right:     []rune(pair.Right),
			Closed:    compile(catExpr{ws, left, parts.content, right, ws, delim}, false),
			Improper:  compile(catExpr{ws, left, parts.content, eosExpr{}}, false),
			Content:   parts.pattern,
			unescaper: parts.unescaper,
		})
	}
	return g
}

// partsFor returns the cached content sub-pattern of a quote pair.
func partsFor(pair format.QuotePair) *quoteParts {
	if p, ok := quotes.Get(pair); ok {
		return p
	}
	content := starExpr{altExpr{
		litExpr(pair.RightEscaped),
		catExpr{notAheadExpr{[]rune(pair.Right)}, anyExpr{}},
	}}
	p := &quoteParts{
		content:   content,
		pattern:   compile(catExpr{litExpr(pair.Left), content}, false),
		unescaper: strings.NewReplacer(pair.RightEscaped, pair.Right, pair.LeftEscaped, pair.Left),
	}
	quotes.Add(pair, p)
	return p
}

// delimiterLiterals lists what a plain value must stop in front of.
func (g *Grammar) delimiterLiterals() [][]rune {
	var lits [][]rune
	if len(g.RecordSeparator) > 0 {
		lits = append(lits, g.RecordSeparator)
	}
	if len(g.ValueSeparator) > 0 {
		lits = append(lits, g.ValueSeparator)
	}
	if len(g.Suffix) > 0 {
		if len(g.RecordSeparator) > 0 {
			lits = append(lits, concat(g.Suffix, g.RecordSeparator))
		}
		lits = append(lits, concat(g.Suffix, []rune{EOS}))
	}
	return lits
}

// delimiterExpr matches one delimiter or the end of input.
func (g *Grammar) delimiterExpr() expr {
	alt := altExpr{eosExpr{}}
	if len(g.RecordSeparator) > 0 {
		alt = append(alt, litExpr(g.RecordSeparator))
	}
	if len(g.ValueSeparator) > 0 {
		alt = append(alt, litExpr(g.ValueSeparator))
	}
	if len(g.Suffix) > 0 {
		tail := altExpr{eosExpr{}}
		if len(g.RecordSeparator) > 0 {
			tail = append(tail, litExpr(g.RecordSeparator))
		}
		alt = append(alt, catExpr{litExpr(g.Suffix), tail})
	}
	return alt
}

// Unquote strips the quotes from raw and replaces escaped quotes. For an
// improper value only the left quote is removed. With trim, blanks outside
// the quotes are dropped; an improper value keeps its trailing blanks.
func (q *Quote) Unquote(raw string, closed, trim bool) string {
	s := raw
	if trim {
		s = strings.TrimLeft(s, " \t")
		if closed {
			s = strings.TrimRight(s, " \t")
		}
	}
	s = strings.TrimPrefix(s, q.Pair.Left)
	if closed && len(s) >= len(q.Pair.Right) && strings.HasSuffix(s, q.Pair.Right) {
		s = s[:len(s)-len(q.Pair.Right)]
	}
	return q.unescaper.Replace(s)
}

// Escape doubles every quote in s the way Unquote expects.
func (q *Quote) Escape(s string) string {
	if q.Pair.Left == q.Pair.Right {
		return strings.ReplaceAll(s, q.Pair.Right, q.Pair.RightEscaped)
	}
	return strings.NewReplacer(q.Pair.Right, q.Pair.RightEscaped, q.Pair.Left, q.Pair.LeftEscaped).Replace(s)
}

func concat(a, b []rune) []rune {
	return append(slices.Clip(a), b...)
}

func reversed(r []rune) []rune {
	out := slices.Clone(r)
	slices.Reverse(out)
	return out
}
