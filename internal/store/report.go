package store

import (
	"context"
	"database/sql"

	"github.com/mentornet/apiserver/types"
)

// ReportRepository computes the per-user activity aggregates for the admin
// report. Read-only; the single query is the point-in-time snapshot the
// export is built from.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// UserAggregates returns one row per registered user with activity counts
// and the answers-per-ad ratio. The NULLIF guard keeps the ratio NULL for
// users without advertisements instead of raising a division error.
func (r *ReportRepository) UserAggregates(ctx context.Context) ([]types.ReportRow, error) {
	const query = `
		SELECT
			users.remote_id,
			users.data->>'name' AS nickname,
			users.data->>'profile_creation_consented' AS profile_created,
			(SELECT count(*) FROM contacts WHERE contacts.from_user = users.id) AS sent_business_cards,
			(SELECT count(*) FROM contacts WHERE contacts.to_user = users.id) AS received_business_cards,
			(SELECT count(*) FROM ads WHERE ads.user_id = users.id) AS ads,
			(SELECT count(*) FROM answers WHERE answers.user_id = users.id) AS answers,
			(SELECT sum((SELECT count(*) FROM answers WHERE answers.ad_id = ads.id))::float
				/ NULLIF(count(ads.*), 0)
			 FROM ads WHERE ads.user_id = users.id) AS gotten_answers_per_ad
		FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := make([]types.ReportRow, 0)
	for rows.Next() {
		var row types.ReportRow
		if err := rows.Scan(
			&row.RemoteID,
			&row.Nickname,
			&row.ProfileCreated,
			&row.SentBusinessCards,
			&row.ReceivedBusinessCards,
			&row.Ads,
			&row.Answers,
			&row.GottenAnswersPerAd,
		); err != nil {
			return nil, err
		}
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}
