package dsv_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapestone/shape-dsv/pkg/dsv"
	"github.com/shapestone/shape-dsv/pkg/format"
)

func csvFormat() format.DatasetFormat {
	return format.DatasetFormat{Data: format.CSV()}
}

func csvWithHeader() format.DatasetFormat {
	h := format.CSV()
	return format.DatasetFormat{Header: &h, Data: format.CSV()}
}

func strs(recs []*dsv.BatchRecord) [][]string {
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Strings())
	}
	return out
}

func TestParseString(t *testing.T) {
	batch, err := dsv.ParseString("name,age\nAlice,30\nBob,25\n", csvFormat())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, batch.Header.Strings())
	assert.Equal(t, [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "25"}}, strs(batch.Records))
	assert.Empty(t, batch.Errors)
	assert.EqualValues(t, 25, batch.CharactersConsumed)
}

func TestParseStringExplicitHeader(t *testing.T) {
	batch, err := dsv.ParseString("name,age\nAlice,30\n", csvWithHeader())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, batch.Header.Strings())
	assert.Equal(t, [][]string{{"Alice", "30"}}, strs(batch.Records))
}

func TestParseStringInvalidFormat(t *testing.T) {
	_, err := dsv.ParseString("a", format.DatasetFormat{Data: format.RecordFormat{ValueSeparator: ","}})
	require.Error(t, err)

	var fe *format.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "record_separator", fe.Field)
}

func TestParseReaderBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,value\n")
	for i := 0; i < 100; i++ {
		b.WriteString("1,x\n")
	}

	opts := dsv.DefaultOptions()
	opts.MaxCharsPerBatch = 16
	p, err := dsv.NewParser(strings.NewReader(b.String()), csvWithHeader(), opts)
	require.NoError(t, err)
	defer p.Close()

	batches, records := 0, 0
	for {
		batch, err := p.Parse()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		batches++
		records += len(batch.Records)
	}
	assert.Equal(t, 100, records)
	assert.Greater(t, batches, 1)
	assert.Equal(t, []string{"id", "value"}, p.Header())
	assert.True(t, p.Done())
}

func TestParseReaderMatchesParseString(t *testing.T) {
	input := "a,b\n\"x,1\",2\n3,\"multi\nline\"\nbad\n"
	whole, err := dsv.ParseString(input, csvFormat())
	require.NoError(t, err)

	opts := dsv.DefaultOptions()
	opts.MaxCharsPerBatch = 1
	paged, err := dsv.ParseReader(strings.NewReader(input), csvFormat(), opts)
	require.NoError(t, err)

	assert.Equal(t, strs(whole.Records), strs(paged.Records))
	assert.Len(t, paged.Errors, len(whole.Errors))
	assert.Equal(t, whole.CharactersConsumed, paged.CharactersConsumed)
}

func TestParseDiagnostics(t *testing.T) {
	batch, err := dsv.ParseString("a,b\n1,2,3\n4\n5,6\n", csvFormat())
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"5", "6"}}, strs(batch.Records))
	require.Len(t, batch.Errors, 2)
	assert.Equal(t, dsv.TooManyColumns, batch.Errors[0].Kind)
	assert.EqualValues(t, 2, batch.Errors[0].Line)
	assert.Equal(t, dsv.TooFewColumns, batch.Errors[1].Kind)
	assert.Equal(t, "too few columns: got 1, expected 2", batch.Errors[1].Message())
}

func TestParseOverflow(t *testing.T) {
	opts := dsv.DefaultOptions()
	opts.MaxValueSize = 4
	_, err := dsv.ParseReader(strings.NewReader(strings.Repeat("x", 32)), csvFormat(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, dsv.ErrLookaheadExceeded)
}

func TestParseReaderKeepsRecordsBeforeOverflow(t *testing.T) {
	opts := dsv.DefaultOptions()
	opts.MaxValueSize = 4
	input := "a,b\n1,2\n3,4\n\"" + strings.Repeat("x", 32)

	batch, err := dsv.ParseReader(strings.NewReader(input), csvWithHeader(), opts)
	assert.ErrorIs(t, err, dsv.ErrLookaheadExceeded)
	require.NotNil(t, batch)
	assert.Equal(t, []string{"a", "b"}, batch.Header.Strings())
	require.Len(t, batch.Records, 2)
	assert.Equal(t, []string{"3", "4"}, batch.Records[1].Strings())

	scanner := dsv.NewScanner(strings.NewReader(input), csvWithHeader()).SetOptions(opts)
	defer scanner.Close()
	var rows [][]string
	for scanner.Scan() {
		rows = append(rows, scanner.Record().Strings())
	}
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, rows)
	assert.ErrorIs(t, scanner.Err(), dsv.ErrLookaheadExceeded)
}

func TestOptionsValidate(t *testing.T) {
	opts := dsv.DefaultOptions()
	opts.MaxCharsPerBatch = -1
	_, err := dsv.NewStringParser("a", csvFormat(), opts)

	var oe *dsv.OptionsError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "MaxCharsPerBatch", oe.Field)
	assert.Equal(t, "dsv: invalid MaxCharsPerBatch: must not be negative", err.Error())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, dsv.Validate("a,b\n1,2\n", csvFormat()))

	err := dsv.Validate("a,b\n1,2,3\n", csvFormat())
	require.Error(t, err)
	assert.ErrorIs(t, err, dsv.ErrMalformed)

	var d dsv.Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, dsv.TooManyColumns, d.Kind)
}

func TestValidateIgnoresWarnings(t *testing.T) {
	data := format.CSV()
	f := format.DatasetFormat{Data: data}
	// A long but complete value is only a warning.
	long := strings.Repeat("v", dsv.DefaultMaxValueSize)
	assert.NoError(t, dsv.Validate("h\n"+long+"\n", f))
}
