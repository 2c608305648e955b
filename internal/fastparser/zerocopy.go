package fastparser

import (
	"strings"

	"github.com/shapestone/shape-dsv/internal/grammar"
	"github.com/shapestone/shape-dsv/pkg/format"
)

// Kind tags a ValueRange.
type Kind uint8

const (
	// Plain ranges cover the value text itself.
	Plain Kind = iota
	// Quoted ranges include both quotes.
	Quoted
	// ImproperQuoted ranges start with a left quote and run to the end of
	// input without finding the right one.
	ImproperQuoted
)

// ValueRange is a half-open [Start, End) byte range into the parsed
// sequence. It borrows the sequence and is only valid while it is alive.
type ValueRange struct {
	Kind  Kind
	Start int
	End   int
	// Quote is set for Quoted and ImproperQuoted ranges.
	Quote *grammar.Quote
}

// Value returns the decoded text of the range.
func (v ValueRange) Value(seq string) string {
	raw := seq[v.Start:v.End]
	switch v.Kind {
	case Quoted:
		return v.Quote.Unquote(raw, true, false)
	case ImproperQuoted:
		return v.Quote.Unquote(raw, false, false)
	default:
		return raw
	}
}

// Record is one record as value ranges, with the row number column removed.
type Record struct {
	Values []ValueRange
	// Start and End delimit the record text, record separator excluded.
	Start int
	End   int
	// HasRecordSeparator is false for a last record without one.
	HasRecordSeparator bool
	// Malformed records hold the whole raw line as a single plain value.
	Malformed bool
}

// Result is a fully parsed sequence.
type Result struct {
	Format   format.DatasetFormat
	Sequence string
	Header   *Record
	Records  []Record
	// ColumnsCount is the largest value count of the header and all records.
	ColumnsCount int
}

// Strings materializes the values of rec.
func (r *Result) Strings(rec *Record) []string {
	out := make([]string, len(rec.Values))
	for i, v := range rec.Values {
		out[i] = v.Value(r.Sequence)
	}
	return out
}

// IsNull reports whether v, a value of rec, is unquoted and equal to the
// null text of the format rec was parsed with: the header format for the
// header, the data format otherwise.
func (r *Result) IsNull(rec *Record, v ValueRange) bool {
	f := r.Format.DataFormat()
	if rec == r.Header {
		f = r.Format.HeaderFormat()
	}
	return v.Kind == Plain && f.NullText != "" && r.Sequence[v.Start:v.End] == f.NullText
}

// Parse parses the complete sequence seq. It returns nil if no header could
// be established.
func Parse(seq string, f format.DatasetFormat) *Result {
	p := &rangeParser{seq: seq, in: grammar.StringInput(seq)}
	header := grammar.Compile(f.HeaderFormat())
	data := grammar.Compile(f.DataFormat())
	headerIsData := f.Header == nil && !f.DataFormat().RowNumbers

	res := &Result{Format: f, Sequence: seq}
	for pos := 0; pos < len(seq); {
		g := data
		if res.Header == nil {
			g = header
		}
		rec, next := p.record(g, pos)
		pos = next
		res.ColumnsCount = max(res.ColumnsCount, len(rec.Values))

		if res.Header == nil && !rec.Malformed {
			h := rec
			res.Header = &h
			if !headerIsData {
				continue
			}
		}
		res.Records = append(res.Records, rec)
	}
	if res.Header == nil {
		return nil
	}
	return res
}

type rangeParser struct {
	seq string
	in  grammar.StringInput

	// memoFrom..memoAt caches the next record separator of memoG: for any
	// position in that span the answer is memoAt.
	memoG    *grammar.Grammar
	memoFrom int
	memoAt   int
}

// record parses one record at pos and returns the position after it.
func (p *rangeParser) record(g *grammar.Grammar, pos int) (Record, int) {
	rec := Record{Start: pos}
	start := pos

	n := p.literal(pos, g.Prefix)
	if n < 0 {
		return p.malformed(start)
	}
	pos += n

	for {
		var v ValueRange
		v, pos = p.value(g, pos)
		rec.Values = append(rec.Values, v)
		n = p.literal(pos, g.ValueSeparator)
		if len(g.ValueSeparator) == 0 || n < 0 {
			break
		}
		pos += n
	}

	if n = p.literal(pos, g.Suffix); n < 0 {
		return p.malformed(start)
	}
	pos += n
	rec.End = pos
	if pos < len(p.seq) {
		if n = p.literal(pos, g.RecordSeparator); n < 0 {
			return p.malformed(start)
		}
		pos += n
		rec.HasRecordSeparator = true
	}

	if g.Format.RowNumbers && len(rec.Values) > 0 {
		rec.Values = rec.Values[1:]
	}
	return rec, pos
}

// malformed captures the raw line starting at start as a single value.
func (p *rangeParser) malformed(start int) (Record, int) {
	rec := Record{Start: start, Malformed: true}
	end, next := len(p.seq), len(p.seq)
	if i := strings.IndexAny(p.seq[start:], "\r\n"); i >= 0 {
		end = start + i
		_, w, _ := p.in.Next(end)
		next = end + w
		rec.HasRecordSeparator = true
	}
	rec.End = end
	rec.Values = []ValueRange{{Kind: Plain, Start: start, End: end}}
	return rec, next
}

// value matches a quoted or plain value at pos.
func (p *rangeParser) value(g *grammar.Grammar, pos int) (ValueRange, int) {
	trim := g.Format.TrimWhitespace
	qpos := pos
	if trim {
		qpos = p.skipBlanks(pos)
	}
	for _, q := range g.Quotes {
		if p.literal(qpos, q.Left) < 0 {
			continue
		}
		n, _ := q.Content.Match(p.in, qpos)
		end := qpos + n
		if r := p.literal(end, q.Right); r >= 0 {
			after := end + r
			if trim {
				after = p.skipBlanks(after)
			}
			if p.atDelimiter(g, after) {
				return ValueRange{Kind: Quoted, Start: qpos, End: end + r, Quote: q}, after
			}
			continue
		}
		// No right quote: the content ran to the end of input. Give back a
		// trailing delimiter the way the streaming lexer does.
		limit := qpos + p.literal(qpos, q.Left) + len(q.Pair.Right)
		if back := g.Rewind.MatchBackward(p.in, end, limit); back > 0 {
			end -= back
		}
		return ValueRange{Kind: ImproperQuoted, Start: qpos, End: end, Quote: q}, end
	}

	end := p.plainEnd(g, pos)
	v := ValueRange{Kind: Plain, Start: pos, End: end}
	if trim {
		raw := p.seq[pos:end]
		v.Start += len(raw) - len(strings.TrimLeft(raw, " \t"))
		v.End -= len(raw) - len(strings.TrimRight(raw, " \t"))
		if v.End < v.Start {
			v.End = v.Start
		}
	}
	return v, end
}

// plainEnd returns the first position at or after pos where a value
// separator, a record separator or a suffix followed by a record separator
// or the end of input begins.
func (p *rangeParser) plainEnd(g *grammar.Grammar, pos int) int {
	end := p.nextRecordSeparator(g, pos)
	if len(g.Suffix) > 0 {
		s := string(g.Suffix)
		if end-len(s) >= pos && strings.HasSuffix(p.seq[:end], s) {
			end -= len(s)
		}
	}
	if len(g.ValueSeparator) > 0 {
		if i := p.index(pos, end, g.ValueSeparator); i >= 0 {
			end = i
		}
	}
	return end
}

// nextRecordSeparator returns the position of the first record separator
// at or after pos, or the end of the sequence.
func (p *rangeParser) nextRecordSeparator(g *grammar.Grammar, pos int) int {
	if p.memoG == g && pos >= p.memoFrom && pos <= p.memoAt {
		return p.memoAt
	}
	at := len(p.seq)
	if len(g.RecordSeparator) > 0 {
		if i := p.index(pos, len(p.seq), g.RecordSeparator); i >= 0 {
			at = i
		}
	}
	p.memoG, p.memoFrom, p.memoAt = g, pos, at
	return at
}

// index finds the first position in [from, to) where lit matches.
func (p *rangeParser) index(from, to int, lit []rune) int {
	first := string(lit[:1])
	if lit[0] == '\n' {
		first = "\r\n"
	}
	for pos := from; pos < to; {
		i := strings.IndexAny(p.seq[pos:to], first)
		if i < 0 {
			return -1
		}
		pos += i
		if p.literal(pos, lit) >= 0 {
			return pos
		}
		_, w, _ := p.in.Next(pos)
		pos += w
	}
	return -1
}

// literal returns the number of bytes lit covers at pos, or -1.
func (p *rangeParser) literal(pos int, lit []rune) int {
	cur := pos
	for _, want := range lit {
		r, w, _ := p.in.Next(cur)
		if r != want {
			return -1
		}
		cur += w
	}
	return cur - pos
}

// atDelimiter reports whether a value may end at pos.
func (p *rangeParser) atDelimiter(g *grammar.Grammar, pos int) bool {
	if pos >= len(p.seq) {
		return true
	}
	if len(g.RecordSeparator) > 0 && p.literal(pos, g.RecordSeparator) >= 0 {
		return true
	}
	if len(g.ValueSeparator) > 0 && p.literal(pos, g.ValueSeparator) >= 0 {
		return true
	}
	if n := p.literal(pos, g.Suffix); len(g.Suffix) > 0 && n >= 0 {
		return pos+n == len(p.seq) || p.literal(pos+n, g.RecordSeparator) >= 0
	}
	return false
}

func (p *rangeParser) skipBlanks(pos int) int {
	for pos < len(p.seq) && (p.seq[pos] == ' ' || p.seq[pos] == '\t') {
		pos++
	}
	return pos
}
