package llm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minCharRun is how many consecutive one-character lines count as a
	// streaming artifact rather than content.
	minCharRun     = 4
	maxCleanPasses = 5
)

var (
	paragraphMarker  = regexp.MustCompile(`(?i)[ \t]*(?:\[PARAGRAPH_BREAK\]|<PARAGRAPH_BREAK>)[ \t]*`)
	headerPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	bulletPattern    = regexp.MustCompile(`(?m)^[ \t]*[-*+•][ \t]+`)
	numberPattern    = regexp.MustCompile(`(?m)^[ \t]*(\d+)[.)][ \t]+`)
	boldStar         = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldUnderscore   = regexp.MustCompile(`__([^_\n]+)__`)
	italicStar       = regexp.MustCompile(`\*([^*\s][^*\n]*?)\*`)
	italicUnderscore = regexp.MustCompile(`(^|[\s(])_([^_\s][^_\n]*?)_([\s).,!?:;]|$)`)
	salutation       = regexp.MustCompile(`([.!?])[ \t]+((?:Dear|Hi|Hello) [A-Z][^\n,]*,|(?:Sincerely|Best regards|Kind regards|Warm regards|Regards|Best|Cheers|Thanks|Thank you|Respectfully|Yours truly|Yours sincerely),)`)
	trailingSpace    = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns        = regexp.MustCompile(`\n{3,}`)
)

// CleanText removes formatting artifacts from model output so it renders as
// plain Slack text. It is applied until the output stops changing, which
// makes it idempotent.
func CleanText(s string) string {
	for range maxCleanPasses {
		next := cleanOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = collapseCharLines(s)
	s = paragraphMarker.ReplaceAllString(s, "\n\n")
	s = headerPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "• ")
	s = numberPattern.ReplaceAllString(s, "$1. ")
	s = boldStar.ReplaceAllString(s, "$1")
	s = boldUnderscore.ReplaceAllString(s, "$1")
	s = italicStar.ReplaceAllString(s, "$1")
	s = italicUnderscore.ReplaceAllString(s, "$1$2$3")
	s = salutation.ReplaceAllString(s, "$1\n\n$2")
	s = trailingSpace.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// collapseCharLines joins runs of lines that hold a single character each,
// which some streaming backends produce when every token lands on its own line.
func collapseCharLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	var run []string

	flush := func() {
		if len(run) >= minCharRun {
			out = append(out, strings.Join(run, ""))
		} else {
			out = append(out, run...)
		}
		run = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) == 1 {
			run = append(run, trimmed)
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()

	return strings.Join(out, "\n")
}
