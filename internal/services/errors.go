package services

import "errors"

var (
	// ErrForbidden is returned when the caller's identity resolved but the
	// authorization authority denied administrative privilege.
	ErrForbidden = errors.New("administrative privilege required")

	// ErrAuthorityUnavailable is returned when the privilege decision could
	// not be obtained. Access is never granted by default in that case.
	ErrAuthorityUnavailable = errors.New("authorization authority unavailable")

	// ErrReportQuery is returned when the aggregation query failed. No
	// partial report is ever returned.
	ErrReportQuery = errors.New("report query failed")
)
