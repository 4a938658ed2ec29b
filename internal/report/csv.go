package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	records "agristack/internal/records/models"
)

// WriteCSV writes recs with the first record's keys as header. Strings,
// timestamps and dates are always quoted with inner quotes doubled, absent
// values are empty and numbers and booleans are bare. Lines are joined
// with "\n".
func WriteCSV(w io.Writer, recs []records.Record) error {
	if len(recs) == 0 {
		return errNoData()
	}
	bw := bufio.NewWriter(w)
	header := recs[0].Fields()
	keys := make([]string, len(header))
	for i, f := range header {
		keys[i] = f.Key
	}
	bw.WriteString(strings.Join(keys, ","))

	for _, rec := range recs {
		fields := records.FieldMap(rec)
		bw.WriteByte('\n')
		for i, k := range keys {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(csvValue(fields[k]))
		}
	}
	return bw.Flush()
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return quote(x)
	case time.Time:
		return quote(x.UTC().Format(time.RFC3339Nano))
	case records.Date:
		if x.IsZero() {
			return ""
		}
		return quote(x.String())
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return quote(x.String())
	}
	return fmt.Sprint(v)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
