// Package policy guards the skill sandbox against voice commands that
// resolve to a destructive or secret-exposing skill invocation, and
// scrubs PII out of anything bound for long-term storage.
package policy

import (
	"regexp"
	"strings"
)

// IntentDecision is the guard's verdict for one resolved skill intent.
// Risk is purely informational (logged alongside the invocation); only
// Blocked changes runtime behavior, since the sandbox runs unattended
// and has no one to ask for approval.
type IntentDecision struct {
	Risk    string
	Blocked bool
	Reason  string
}

var (
	// blockedIntentPatterns catch a skill invocation being used to shell
	// out to something destructive or to surface a secret, regardless of
	// which skill or intent name carries it.
	blockedIntentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\s+-rf\s+/(?:\s|$)`),
		regexp.MustCompile(`(?i)\b(mkfs|dd\s+if=|:\(\)\s*\{)`),
		regexp.MustCompile(`(?i)\b(sudo\s+)?cat\s+.*(?:id_rsa|id_ed25519|\.env|auth\.json)`),
		regexp.MustCompile(`(?i)\b(exfiltrate|steal|dump credentials|leak secrets?)\b`),
		regexp.MustCompile(`(?i)\b(print|show|reveal)\b.*\b(api[_ -]?key|token|password|secret)\b`),
	}
	// highRiskKeywords flag the handful of things the builtin skill set can
	// actually do to the host system: open_application shells out to an
	// arbitrary named program, and these verbs name the ones most likely
	// to hurt if that program turns out to be destructive.
	highRiskKeywords = []string{
		"shutdown", "reboot", "restart", "power off", "factory reset",
		"format", "wipe", "delete", "uninstall", "kill", "terminate",
	}
	// mediumRiskKeywords flag intents that change persistent state
	// (writing a fact, launching a program) without being outright
	// dangerous.
	mediumRiskKeywords = []string{
		"open_application", "open application", "launch", "install",
		"store_memory", "remember", "write", "save",
	}
)

// DecideIntent classifies a resolved intent name plus its flattened
// parameters before the sandbox spawns a child process for it.
func DecideIntent(intent string) IntentDecision {
	in := strings.ToLower(strings.TrimSpace(intent))
	if in == "" {
		return IntentDecision{Risk: "low"}
	}

	for _, re := range blockedIntentPatterns {
		if re.MatchString(in) {
			return IntentDecision{
				Risk:    "blocked",
				Blocked: true,
				Reason:  "Request appears to include destructive or secret-exposing behavior.",
			}
		}
	}

	for _, kw := range highRiskKeywords {
		if strings.Contains(in, kw) {
			return IntentDecision{Risk: "high"}
		}
	}

	for _, kw := range mediumRiskKeywords {
		if strings.Contains(in, kw) {
			return IntentDecision{Risk: "medium"}
		}
	}

	return IntentDecision{Risk: "low"}
}
