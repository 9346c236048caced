package importer

import (
	"fmt"
	"strconv"

	"rosterload/student"
)

// Project turns table rows into field keyed records using mapping. Pairs
// whose header is not in the table are ignored. Phone numbers and pincodes
// are sent as strings so leading zeros and long digit runs survive.
func Project(table *Table, mapping *Mapping) []student.Record {
	type column struct {
		index int
		field string
	}

	columns := make([]column, 0, mapping.Len())
	for _, pair := range mapping.Pairs() {
		index := table.HeaderIndex(pair.Header)
		if index < 0 {
			continue
		}
		columns = append(columns, column{index: index, field: pair.Field})
	}

	records := make([]student.Record, 0, len(table.Rows))
	for row := range table.Rows {
		record := make(student.Record, len(columns))
		for _, col := range columns {
			value := table.Cell(row, col.index)
			if student.StringCoerced(col.field) {
				value = coerceString(value)
			}
			record[col.field] = value
		}
		records = append(records, record)
	}
	return records
}

func coerceString(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
