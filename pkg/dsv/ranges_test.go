package dsv_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapestone/shape-dsv/pkg/dsv"
	"github.com/shapestone/shape-dsv/pkg/format"
)

func rangeStrings(res *dsv.RangeResult) [][]string {
	out := make([][]string, len(res.Records))
	for i := range res.Records {
		out[i] = res.Strings(&res.Records[i])
	}
	return out
}

func TestParseRangesMatchesStreaming(t *testing.T) {
	inputs := []string{
		"a,b,c\n1,2,3\n",
		"id,text\r\n1,\"x,y\"\r\n2,\"multi\nline\"\r\n",
		"h\n\"a\"b\n\"q\"\"q\"\n",
		"a,\"unterminated\n",
		"x,y\n,\n",
	}
	for _, in := range inputs {
		streamed, err := dsv.ParseString(in, csvFormat())
		require.NoError(t, err)
		require.Empty(t, streamed.Errors, "input %q", in)

		ranged, err := dsv.ParseRanges(in, csvFormat())
		require.NoError(t, err)
		assert.Equal(t, streamed.Header.Strings(), ranged.Strings(ranged.Header), "input %q", in)
		assert.Equal(t, strs(streamed.Records), rangeStrings(ranged), "input %q", in)
	}
}

func TestParseRangesNoHeader(t *testing.T) {
	_, err := dsv.ParseRanges("", csvFormat())
	assert.ErrorIs(t, err, dsv.ErrNoHeader)

	_, err = dsv.ParseRanges("a", format.DatasetFormat{})
	var fe *format.Error
	assert.ErrorAs(t, err, &fe)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tsv")
	require.NoError(t, os.WriteFile(path, []byte("name\tage\nAlice\t30\nBob\t25\n"), 0o644))

	h := format.TSV()
	res, release, err := dsv.ParseFile(path, format.DatasetFormat{Header: &h, Data: format.TSV()})
	require.NoError(t, err)
	defer release()

	assert.Equal(t, []string{"name", "age"}, res.Strings(res.Header))
	assert.Equal(t, [][]string{{"Alice", "30"}, {"Bob", "25"}}, rangeStrings(res))
	assert.Equal(t, 2, res.ColumnsCount)
}

func TestParseFileErrors(t *testing.T) {
	_, _, err := dsv.ParseFile(filepath.Join(t.TempDir(), "missing.csv"), csvFormat())
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, _, err = dsv.ParseFile(empty, csvFormat())
	assert.ErrorIs(t, err, dsv.ErrNoHeader)
}
