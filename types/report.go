package types

import "database/sql"

// ReportRow is one computed summary record per registered user, produced by
// the admin activity report query.
//
// Nickname and ProfileCreated are extracted from the user's profile document
// and may be absent. GottenAnswersPerAd is NULL for users who own no
// advertisements; the export renders NULL values as empty fields.
type ReportRow struct {
	RemoteID              string          `db:"remote_id"`
	Nickname              sql.NullString  `db:"nickname"`
	ProfileCreated        sql.NullString  `db:"profile_created"`
	SentBusinessCards     int64           `db:"sent_business_cards"`
	ReceivedBusinessCards int64           `db:"received_business_cards"`
	Ads                   int64           `db:"ads"`
	Answers               int64           `db:"answers"`
	GottenAnswersPerAd    sql.NullFloat64 `db:"gotten_answers_per_ad"`
}
