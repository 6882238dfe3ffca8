package tread

import (
	"errors"
	"io/fs"
)

// SkipReason identifies why the walker passed over an entry.
type SkipReason int

const (
	SkipSymlink      SkipReason = iota + 1 // symlink while following is disabled
	SkipOutsideRoot                        // resolved target escapes the root
	SkipMaxDepth                           // entry lies beyond the depth bound
	SkipDuplicate                          // hardlink to an already yielded file
	SkipAccessDenied                       // permission denied by the OS
	SkipOSError                            // any other OS-level failure
)

var reasonNames = [...]string{
	SkipSymlink:      "symlink_skipped",
	SkipOutsideRoot:  "outside_root",
	SkipMaxDepth:     "max_depth_exceeded",
	SkipDuplicate:    "duplicate_hardlink",
	SkipAccessDenied: "access_denied",
	SkipOSError:      "os_error",
}

func (r SkipReason) String() string {
	if r >= 1 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// SkipHandler receives one synchronous notification per skipped entry.
// Handlers must not retain path beyond the call.
type SkipHandler func(path string, reason SkipReason)

// reasonForError classifies an OS error for skip reporting.
func reasonForError(err error) SkipReason {
	if errors.Is(err, fs.ErrPermission) {
		return SkipAccessDenied
	}
	return SkipOSError
}
