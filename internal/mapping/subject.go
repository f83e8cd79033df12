package mapping

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	replyPrefix   = regexp.MustCompile(`(?i)^\s*(re|fwd|fw|forward|reply)\s*:\s*`)
	referenceCode = regexp.MustCompile(`(?i)\bENG\s*[-#]\s*(\d+)\b`)
)

// NormalizeSubject strips any run of reply/forward prefixes, collapses
// whitespace and lowercases.
func NormalizeSubject(subject string) string {
	s := subject
	for {
		stripped := replyPrefix.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ReferenceCodes returns engagement ids referenced in a subject as
// ENG-123, [ENG-123] or ENG#123, in order of appearance without duplicates.
func ReferenceCodes(subject string) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, m := range referenceCode.FindAllStringSubmatch(subject, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func senderDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(address[at+1:]))
}
