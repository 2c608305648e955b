package dsv

import (
	"github.com/shapestone/shape-dsv/internal/fastparser"
	"github.com/shapestone/shape-dsv/pkg/format"
)

// RangeResult is a sequence parsed into byte ranges.
type RangeResult = fastparser.Result

// RangeRecord is a record of value ranges.
type RangeRecord = fastparser.Record

// ValueRange is a half-open byte range into the parsed sequence.
type ValueRange = fastparser.ValueRange

// ParseRanges parses the complete sequence seq without copying values.
// Unlike the streaming parser it does not check column counts: records
// keep whatever values they hold and RangeResult.ColumnsCount reports the
// widest. A line that does not fit the format becomes a single malformed
// value.
//
// Example:
//
//	res, err := dsv.ParseRanges(data, format.DatasetFormat{Data: format.CSV()})
//	for i := range res.Records {
//	    fmt.Println(res.Strings(&res.Records[i]))
//	}
func ParseRanges(seq string, f format.DatasetFormat) (*RangeResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	res := fastparser.Parse(seq, f)
	if res == nil {
		return nil, ErrNoHeader
	}
	return res, nil
}

// ParseFile memory-maps filename and parses it like ParseRanges. The
// returned release func unmaps the file; ranges must not be used after it
// has been called.
func ParseFile(filename string, f format.DatasetFormat) (*RangeResult, func(), error) {
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}
	res, release, err := fastparser.ParseFile(filename, f)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		release()
		return nil, nil, ErrNoHeader
	}
	return res, release, nil
}
