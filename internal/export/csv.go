// Package export renders report rows as delimited text.
package export

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"strconv"

	"github.com/mentornet/apiserver/types"
)

// DefaultDelimiter is the field delimiter used when the caller does not ask
// for another one.
const DefaultDelimiter = ';'

// Fields lists the report columns in their fixed export order. The header
// line of every export document is exactly these names.
var Fields = []string{
	"remote_id",
	"nickname",
	"profile_created",
	"sent_business_cards",
	"received_business_cards",
	"ads",
	"answers",
	"gotten_answers_per_ad",
}

// EncodeReport serializes rows as delimited text: one header line, then one
// line per row in input order. NULL fields render as empty strings. Field
// values containing the delimiter, a quote or a line break are quoted per
// CSV rules, so the document parses back to the exact same values.
func EncodeReport(rows []types.ReportRow, delimiter rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter

	if err := w.Write(Fields); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(record(row)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func record(row types.ReportRow) []string {
	return []string{
		row.RemoteID,
		nullString(row.Nickname),
		nullString(row.ProfileCreated),
		strconv.FormatInt(row.SentBusinessCards, 10),
		strconv.FormatInt(row.ReceivedBusinessCards, 10),
		strconv.FormatInt(row.Ads, 10),
		strconv.FormatInt(row.Answers, 10),
		nullFloat(row.GottenAnswersPerAd),
	}
}

func nullString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}
