package fsutil

import (
	"fmt"
	"strconv"
	"strings"
)

// PendingPrefix marks normalized images that have not been given their
// final name yet. File prefixes are slugs and never start with "_".
const PendingPrefix = "_pending_"

// FinalName is "<prefix>_<seq>.jpg" with seq zero-padded to three digits.
func FinalName(prefix string, seq int) string {
	return fmt.Sprintf("%s_%03d.jpg", prefix, seq)
}

func PendingName(seq int) string {
	return fmt.Sprintf("%s%03d.jpg", PendingPrefix, seq)
}

// ParseFinal returns the sequence number of a final name for prefix.
func ParseFinal(prefix, name string) (int, bool) {
	return parseSeq(prefix+"_", name)
}

func ParsePending(name string) (int, bool) {
	return parseSeq(PendingPrefix, name)
}

func parseSeq(lead, name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, lead)
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, ".jpg")
	if !ok || len(digits) < 3 {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}
