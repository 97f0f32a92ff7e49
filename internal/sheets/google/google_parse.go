package google

import (
	"fmt"
	"strconv"
)

// splitValues converts a values matrix as returned by the Sheets API into a
// header and string rows. Leading empty rows are skipped; a nil header means
// the sheet is empty.
func splitValues(values [][]interface{}) ([]string, [][]string) {
	start := 0
	for start < len(values) && len(values[start]) == 0 {
		start++
	}
	if start == len(values) {
		return nil, nil
	}
	header := toStrings(values[start])
	rows := make([][]string, 0, len(values)-start-1)
	for _, v := range values[start+1:] {
		rows = append(rows, toStrings(v))
	}
	return header, rows
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders one unformatted cell. Numbers keep full precision so
// payment values are not rounded by the sheet's display format.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
