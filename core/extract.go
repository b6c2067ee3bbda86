package core

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/nox-hq/histscan/core/git"
)

// ErrUndecodableDiff is returned when the diff of a non-binary file is not
// valid UTF-8 text.
var ErrUndecodableDiff = errors.New("diff is not valid UTF-8")

// diffText returns the decoded diff of f. ok is false for binary files,
// which carry nothing to scan.
func diffText(f git.ChangedFile) (text string, ok bool, err error) {
	if f.Binary || bytes.HasPrefix(f.Patch, []byte(git.BinaryMarker)) {
		return "", false, nil
	}
	if !utf8.Valid(f.Patch) {
		return "", false, fmt.Errorf("%s: %w", f.Path(), ErrUndecodableDiff)
	}
	return string(f.Patch), true, nil
}
