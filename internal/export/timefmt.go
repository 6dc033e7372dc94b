package export

import "time"

// All timestamps render in UTC regardless of host timezone so repeated
// exports of the same record are byte-identical. Every function here is
// pure; there is no shared formatter state.

// DateOnly renders epoch milliseconds as "YYYY-MM-DD".
func DateOnly(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}

// DateTime renders epoch milliseconds as an ISO-8601 timestamp with a
// trailing "Z", e.g. "2012-04-23T18:25:43Z".
func DateTime(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02T15:04:05Z")
}

// HL7Timestamp renders epoch milliseconds as a 14-digit HL7 TS value,
// "YYYYMMDDHHMMSS". C-CDA effectiveTime and HL7v2 segments both use it.
func HL7Timestamp(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("20060102150405")
}

// HL7Date renders epoch milliseconds as "YYYYMMDD", used for birth times.
func HL7Date(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("20060102")
}
