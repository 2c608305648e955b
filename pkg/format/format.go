// Package format describes the grammar of a delimited text file.
//
// A RecordFormat is a plain value: prefix and suffix framing each record,
// a value separator, a record separator and an ordered list of quote pairs.
// The zero value is not usable; start from CSV, TSV or a YAML file loaded
// with Load.
//
// Line endings are normalized everywhere: a "\n" in any format string
// matches "\r\n", "\n" and "\r" in the input.
package format

import (
	"fmt"
	"strings"
)

// QuotePair is a left/right quote together with the escaped forms that
// represent a literal quote inside quoted text.
type QuotePair struct {
	Left         string `yaml:"left"`
	Right        string `yaml:"right"`
	RightEscaped string `yaml:"right_escaped,omitempty"`
	LeftEscaped  string `yaml:"left_escaped,omitempty"`
}

// DoubleQuote is the RFC 4180 quote pair.
var DoubleQuote = QuotePair{Left: `"`, Right: `"`}

// WithDefaults returns a copy of q with empty escaped forms replaced by the
// doubled quote.
func (q QuotePair) WithDefaults() QuotePair {
	if q.RightEscaped == "" {
		q.RightEscaped = q.Right + q.Right
	}
	if q.LeftEscaped == "" {
		q.LeftEscaped = q.Left + q.Left
	}
	return q
}

// Usable reports whether both sides of the pair are non-empty.
func (q QuotePair) Usable() bool {
	return q.Left != "" && q.Right != ""
}

// RecordFormat is the grammar of a single record.
type RecordFormat struct {
	Prefix          string      `yaml:"prefix,omitempty"`
	Suffix          string      `yaml:"suffix,omitempty"`
	ValueSeparator  string      `yaml:"value_separator"`
	RecordSeparator string      `yaml:"record_separator"`
	QuotePairs      []QuotePair `yaml:"quotes,omitempty"`
	TrimWhitespace  bool        `yaml:"trim_whitespace,omitempty"`
	NullText        string      `yaml:"null_text,omitempty"`
	// RowNumbers marks the first column as a synthetic row index that is
	// dropped before values are exposed.
	RowNumbers bool `yaml:"row_numbers,omitempty"`
}

// DatasetFormat combines an optional header format with the data format.
// When Header is nil the first data record also provides the column names.
type DatasetFormat struct {
	Header     *RecordFormat `yaml:"header,omitempty"`
	Data       RecordFormat  `yaml:"data"`
	RowNumbers bool          `yaml:"row_numbers,omitempty"`
}

// CSV returns the comma separated format with double quotes.
func CSV() RecordFormat {
	return RecordFormat{
		ValueSeparator:  ",",
		RecordSeparator: "\n",
		QuotePairs:      []QuotePair{DoubleQuote},
	}
}

// TSV returns the tab separated format with double quotes.
func TSV() RecordFormat {
	f := CSV()
	f.ValueSeparator = "\t"
	return f
}

// Normalized returns a copy of f with line endings normalized in every
// literal and escaped quote forms filled in. Unusable quote pairs are dropped.
func (f RecordFormat) Normalized() RecordFormat {
	out := f
	out.Prefix = NormalizeNewlines(f.Prefix)
	out.Suffix = NormalizeNewlines(f.Suffix)
	out.ValueSeparator = NormalizeNewlines(f.ValueSeparator)
	out.RecordSeparator = NormalizeNewlines(f.RecordSeparator)
	out.QuotePairs = make([]QuotePair, 0, len(f.QuotePairs))
	for _, q := range f.QuotePairs {
		if !q.Usable() {
			continue
		}
		q = q.WithDefaults()
		out.QuotePairs = append(out.QuotePairs, QuotePair{
			Left:         NormalizeNewlines(q.Left),
			Right:        NormalizeNewlines(q.Right),
			RightEscaped: NormalizeNewlines(q.RightEscaped),
			LeftEscaped:  NormalizeNewlines(q.LeftEscaped),
		})
	}
	return out
}

// Key returns a canonical string identifying the normalized grammar of f.
// Two formats with equal keys compile to the same patterns.
func (f RecordFormat) Key() string {
	n := f.Normalized()
	var b strings.Builder
	fmt.Fprintf(&b, "%q|%q|%q|%q|%t|%q|%t", n.Prefix, n.Suffix, n.ValueSeparator,
		n.RecordSeparator, n.TrimWhitespace, n.NullText, n.RowNumbers)
	for _, q := range n.QuotePairs {
		fmt.Fprintf(&b, "|%q%q%q%q", q.Left, q.Right, q.RightEscaped, q.LeftEscaped)
	}
	return b.String()
}

// Validate checks the forward-progress invariant: a value must be
// terminable by some delimiter, and every quote pair must have both sides.
func (f RecordFormat) Validate() error {
	if f.RecordSeparator == "" {
		return &Error{Field: "record_separator", Message: "must not be empty"}
	}
	for i, q := range f.QuotePairs {
		if !q.Usable() {
			return &Error{Field: fmt.Sprintf("quotes[%d]", i), Message: "left and right quote must not be empty"}
		}
	}
	if f.ValueSeparator != "" && f.ValueSeparator == f.RecordSeparator {
		return &Error{Field: "value_separator", Message: "same as record separator"}
	}
	return nil
}

// Validate validates the header (if any) and data formats.
func (d DatasetFormat) Validate() error {
	if d.Header != nil {
		if err := d.Header.Validate(); err != nil {
			return fmt.Errorf("header: %w", err)
		}
	}
	if err := d.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return nil
}

// HeaderFormat returns the format used for the first record.
func (d DatasetFormat) HeaderFormat() RecordFormat {
	if d.Header != nil {
		return d.withRowNumbers(*d.Header)
	}
	return d.DataFormat()
}

// DataFormat returns the data format with the dataset row number policy applied.
func (d DatasetFormat) DataFormat() RecordFormat {
	return d.withRowNumbers(d.Data)
}

func (d DatasetFormat) withRowNumbers(f RecordFormat) RecordFormat {
	if d.RowNumbers {
		f.RowNumbers = true
	}
	return f
}

// Error describes an invalid format setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "format: invalid " + e.Field + ": " + e.Message
}

// NormalizeNewlines rewrites "\r\n" and lone "\r" to "\n".
func NormalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
