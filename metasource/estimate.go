package metasource

import (
	"reflect"
	"sync"

	"slidemeta/contracts"
)

// EstimateInMemoryDataSize returns an upper-bound byte estimate for the
// full set of output rows, without opening any file. The formula is
// deliberately explicit so the estimate is reproducible:
//
//	baseRowSize*len(paths) + sum(len(path))
//
// where baseRowSize is the in-memory size of one SlideMeta struct plus,
// per field, the length of its emitted label and the size of its value
// type. An empty path list estimates to zero. The result grows
// monotonically with both path count and path length.
func (d *MetaDatasource) EstimateInMemoryDataSize() int64 {
	if len(d.paths) == 0 {
		return 0
	}

	var totalPathSize int64
	for _, p := range d.paths {
		totalPathSize += int64(len(p))
	}
	return baseRowSize()*int64(len(d.paths)) + totalPathSize
}

var (
	baseRowOnce sync.Once
	baseRow     int64
)

// baseRowSize derives the fixed per-row cost from the record type
// itself, so schema changes keep the estimate honest.
func baseRowSize() int64 {
	baseRowOnce.Do(func() {
		t := reflect.TypeOf(contracts.SlideMeta{})
		size := int64(t.Size())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			size += int64(len(f.Tag.Get("json")))
			size += int64(f.Type.Size())
		}
		baseRow = size
	})
	return baseRow
}
