package qcli

import (
	"regexp"
	"strings"
)

// Parsing thresholds. These are tuning values inherited from observed
// transcripts, not derived invariants: they live on the Parser so tests and
// callers can adjust them.
const (
	// DefaultMinResponseLength is the capture size below which marker-based
	// extraction is considered to have missed the answer.
	DefaultMinResponseLength = 200

	// DefaultMinFallbackLength is the minimum acceptable size for the
	// keyword-anchored fallback tier.
	DefaultMinFallbackLength = 50
)

type parseState int

const (
	statePreResponse parseState = iota
	stateCapturing
)

// ansiPattern matches CSI escape sequences in both ESC-[ and single-byte
// CSI form.
var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]|\\x9b[0-9;]*[a-zA-Z]")

// chatHeaderMarker is the banner line the CLI prints immediately before the
// assistant's first message.
const chatHeaderMarker = "🤖 You are chatting with"

// responseOpeners are the assistant's characteristic first-person opener
// lines. A marker line is chrome: it flips the state machine to capturing
// but is not itself captured.
var responseOpeners = []string{
	"> I'll help",
	"> I'll analyze",
	"> I've",
	"> Let me",
}

// artifactMarkers identify interactive-chat chrome: model banners, tip
// boxes, trust notices, separators, and the CLI's braille splash art.
var artifactMarkers = []string{
	"Using claude-",
	"(To exit the CLI, press Ctrl+C",
	"amazon q cli",
	"┌─",
	"└─",
	"│ You can",
	"╭─",
	"╰─",
	"/help all commands",
	"ctrl + j new lines",
	"━━━━━━━",
	"All tools are now trusted",
	"Learn more at https://docs.aws.amazon.com",
	"⢠⣶⣶⣦",
	"⠀⠀⠀⣾⡿",
	"⠚⠛⠋⠀",
}

// statusMarkers are process status lines dropped from captured content.
var statusMarkers = []string{
	"command exited with code",
}

// defaultDomainKeywords anchor the fallback tier: the first line containing
// one of these is assumed to begin AWS analysis content.
var defaultDomainKeywords = []string{
	"bucket", "instance", "volume", "cost", "saving",
	"utilization", "aws", "arn:", "vol-", "i-",
}

// Parser recovers the assistant's answer from a transcript polluted with
// ANSI escapes, banner art, tip-of-the-day boxes, and interactive-chat
// chrome. Parsing never fails: each tier degrades to the next, and the raw
// transcript is always retained verbatim on the result.
//
// Tiers, first success wins:
//  1. strip ANSI escapes
//  2. marker state machine: capture every content line after a
//     response-opening marker
//  3. keyword fallback: take everything from the first line containing a
//     domain keyword
//  4. the full stripped transcript minus artifacts, blank runs collapsed
type Parser struct {
	// MinResponseLength is the capture size under which the marker tier is
	// abandoned for the keyword fallback.
	MinResponseLength int

	// MinFallbackLength is the minimum size at which a keyword fallback
	// result is accepted.
	MinFallbackLength int

	// Keywords are the fallback anchors, matched case-insensitively as
	// substrings.
	Keywords []string
}

// NewParser returns a Parser with the default thresholds and keywords.
func NewParser() *Parser {
	return &Parser{
		MinResponseLength: DefaultMinResponseLength,
		MinFallbackLength: DefaultMinFallbackLength,
		Keywords:          defaultDomainKeywords,
	}
}

// Parse recovers the response text from raw. The returned ParsedResponse
// always carries raw untouched; ConversationID and SourceAttributions are
// always empty because the CLI is stateless per call.
func (p *Parser) Parse(raw string) *ParsedResponse {
	stripped := stripANSI(raw)
	lines := strings.Split(stripped, "\n")

	response := p.captureMarked(lines)
	if len(response) < p.MinResponseLength {
		if fallback := p.keywordFallback(lines); len(fallback) >= p.MinFallbackLength {
			response = fallback
		} else if full := trimmedTranscript(lines); full != "" {
			response = full
		} else {
			response = strings.TrimSpace(raw)
		}
	}

	return &ParsedResponse{
		Response:           response,
		ConversationID:     "",
		SourceAttributions: []string{},
		RawOutput:          raw,
	}
}

// captureMarked runs the two-state line scan: PRE_RESPONSE until a response
// marker, then CAPTURING to end of input. Artifact and status lines are
// dropped, "> " prompt decorations stripped, box borders skipped.
func (p *Parser) captureMarked(lines []string) string {
	state := statePreResponse
	var captured []string

	for _, line := range lines {
		if state == statePreResponse {
			if isResponseMarker(line) {
				state = stateCapturing
			}
			continue
		}

		if containsAny(line, artifactMarkers) || containsAny(line, statusMarkers) {
			continue
		}

		cleaned := strings.TrimSpace(strings.ReplaceAll(line, "> ", ""))
		if cleaned == "" || isBoxBorder(cleaned) {
			continue
		}
		captured = append(captured, cleaned)
	}

	return strings.TrimSpace(strings.Join(captured, "\n"))
}

// keywordFallback returns everything from the first keyword-bearing line to
// the end of the transcript, or "" when no line matches. Chrome lines never
// anchor the fallback: the docs-URL banner mentions aws too.
func (p *Parser) keywordFallback(lines []string) string {
	for i, line := range lines {
		if containsAny(line, artifactMarkers) {
			continue
		}
		lowered := strings.ToLower(line)
		for _, keyword := range p.Keywords {
			if strings.Contains(lowered, keyword) {
				return strings.TrimSpace(strings.Join(lines[i:], "\n"))
			}
		}
	}
	return ""
}

// trimmedTranscript is the final tier: every non-artifact line, with runs of
// blank lines collapsed to one.
func trimmedTranscript(lines []string) string {
	var kept []string
	blank := false

	for _, line := range lines {
		if containsAny(line, artifactMarkers) || containsAny(line, statusMarkers) {
			continue
		}
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			kept = append(kept, "")
			continue
		}
		blank = false
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isResponseMarker(line string) bool {
	if strings.Contains(line, chatHeaderMarker) {
		return true
	}
	trimmed := strings.TrimSpace(line)
	for _, opener := range responseOpeners {
		if strings.HasPrefix(trimmed, opener) {
			return true
		}
	}
	return false
}

func isBoxBorder(line string) bool {
	return strings.HasPrefix(line, "╭") ||
		strings.HasPrefix(line, "│") ||
		strings.HasPrefix(line, "╰")
}

func containsAny(line string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func stripANSI(text string) string {
	return ansiPattern.ReplaceAllString(text, "")
}
