// Package findings defines the record produced for every changed file whose
// diff contains a high-entropy string. Findings are handed straight to a
// reporter and are not retained.
package findings

import "time"

// TimestampLayout is the format of commit timestamps in every output mode.
const TimestampLayout = "2006-01-02 15:04:05"

// Finding is a single secret-detection result tied to one file, commit and
// branch.
type Finding struct {
	// Path is the file the diff belongs to.
	Path string
	// Date is the committer time of the commit that introduced the change.
	Date time.Time
	// Branch is the remote branch being walked when the change was found.
	Branch string
	// Message is the full commit message.
	Message string
	// Diff is the complete diff text of the file.
	Diff string
	// String is the first high-entropy string found in Diff.
	String string
	// CommitID identifies the commit for logging; reporters do not render
	// it.
	CommitID string
}

// Timestamp formats Date in local time using TimestampLayout.
func (f Finding) Timestamp() string {
	return f.Date.Local().Format(TimestampLayout)
}
