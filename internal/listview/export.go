package listview

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// WriteCSV writes the schema's export header followed by one row per record.
func WriteCSV[T domain.Record](w io.Writer, schema domain.Schema, records []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.CSVHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	row := make([]string, len(schema.CSVFields))
	for _, r := range records {
		for i, f := range schema.CSVFields {
			row[i] = r.Attr(f)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}
