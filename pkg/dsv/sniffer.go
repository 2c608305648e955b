package dsv

import (
	"strings"

	"github.com/grafana/regexp"

	"github.com/shapestone/shape-dsv/pkg/format"
)

var (
	identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	camelCaseRe  = regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`)
	titleCaseRe  = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)
	numberRe     = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)
	dateRe       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4})([T ]\d{2}:\d{2}(:\d{2})?)?$`)
)

var (
	candidateSeparators = []string{",", "\t", ";", "|"}
	candidateQuotes     = []string{`"`, `'`}
)

// Sniffer guesses the format of a sample: value separator, quote character
// and whether the first line is a header.
type Sniffer struct {
	lines []string

	analyzed  bool
	separator string
	quote     string
	hasHeader bool
}

// NewSniffer creates a Sniffer for sample. Give it at least two or three
// complete lines.
func NewSniffer(sample string) *Sniffer {
	var lines []string
	for _, l := range strings.Split(format.NormalizeNewlines(sample), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return &Sniffer{lines: lines}
}

func (s *Sniffer) analyze() {
	if s.analyzed {
		return
	}
	s.quote = s.detectQuote()
	s.separator = s.detectSeparator()
	s.hasHeader = s.detectHeader()
	s.analyzed = true
}

// Separator returns the detected value separator. Default: ",".
func (s *Sniffer) Separator() string {
	s.analyze()
	return s.separator
}

// Quote returns the detected quote character. Default: `"`.
func (s *Sniffer) Quote() string {
	s.analyze()
	return s.quote
}

// HasHeader reports whether the first line looks like column names.
func (s *Sniffer) HasHeader() bool {
	s.analyze()
	return s.hasHeader
}

// Format returns the detected dataset format. A detected header gets an
// explicit header format so the names are not returned as data.
func (s *Sniffer) Format() format.DatasetFormat {
	s.analyze()
	data := format.RecordFormat{
		ValueSeparator:  s.separator,
		RecordSeparator: "\n",
		QuotePairs:      []format.QuotePair{{Left: s.quote, Right: s.quote}},
	}
	d := format.DatasetFormat{Data: data}
	if s.hasHeader {
		h := data
		d.Header = &h
	}
	return d
}

// detectQuote picks the quote that most often opens a value.
func (s *Sniffer) detectQuote() string {
	best, bestCount := `"`, 0
	for _, q := range candidateQuotes {
		n := 0
		for _, line := range s.lines {
			if strings.HasPrefix(line, q) {
				n++
			}
			for _, sep := range candidateSeparators {
				n += strings.Count(line, sep+q)
			}
		}
		if n > bestCount {
			best, bestCount = q, n
		}
	}
	return best
}

// detectSeparator scores each candidate by its count per line, with a
// bonus when every line agrees.
func (s *Sniffer) detectSeparator() string {
	best, bestScore := ",", 0
	for _, sep := range candidateSeparators {
		var counts []int
		for _, line := range s.lines {
			counts = append(counts, countOutsideQuotes(line, sep, s.quote))
		}
		if len(counts) == 0 || counts[0] == 0 {
			continue
		}
		score := counts[0]
		consistent := true
		for _, c := range counts[1:] {
			if c != counts[0] {
				consistent = false
				break
			}
		}
		if consistent {
			score *= 10
		}
		if score > bestScore {
			best, bestScore = sep, score
		}
	}
	return best
}

// detectHeader compares the first line with the second: names look like
// identifiers, data looks like numbers, dates or addresses.
func (s *Sniffer) detectHeader() bool {
	if len(s.lines) < 2 {
		return false
	}
	first := splitOutsideQuotes(s.lines[0], s.separator, s.quote)
	second := splitOutsideQuotes(s.lines[1], s.separator, s.quote)
	if len(first) != len(second) {
		return false
	}

	headerScore, dataScore := 0, 0
	for i, name := range first {
		name = strings.TrimSpace(name)
		value := strings.TrimSpace(second[i])
		switch {
		case isLikelyData(name):
			dataScore++
		case isLikelyHeader(name) && isLikelyData(value):
			headerScore += 2
		case isLikelyHeader(name):
			headerScore++
		}
	}
	return headerScore > dataScore
}

func isLikelyHeader(s string) bool {
	s = strings.Trim(s, `"'`)
	return identifierRe.MatchString(s) || camelCaseRe.MatchString(s) || titleCaseRe.MatchString(s)
}

func isLikelyData(s string) bool {
	s = strings.Trim(s, `"'`)
	if s == "" {
		return false
	}
	return numberRe.MatchString(s) || dateRe.MatchString(s) || strings.Contains(s, "@")
}

func countOutsideQuotes(line, sep, quote string) int {
	return len(splitOutsideQuotes(line, sep, quote)) - 1
}

// splitOutsideQuotes splits line on sep, ignoring separators between quotes.
func splitOutsideQuotes(line, sep, quote string) []string {
	var (
		fields   []string
		start    int
		inQuotes bool
	)
	for i := 0; i < len(line); {
		switch {
		case strings.HasPrefix(line[i:], quote):
			inQuotes = !inQuotes
			i += len(quote)
		case !inQuotes && strings.HasPrefix(line[i:], sep):
			fields = append(fields, line[start:i])
			i += len(sep)
			start = i
		default:
			i++
		}
	}
	return append(fields, line[start:])
}
