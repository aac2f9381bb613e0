package completion

import "regexp"

// scrubRules run in order; provider-specific key shapes precede the
// generic sk- rule so they keep their label.
var scrubRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\b([A-Z][A-Z0-9_]*(?:API_KEY|TOKEN|SECRET|SECRET_ACCESS_KEY|PASSWORD))\s*=\s*\S+`), "$1=[REDACTED:ENV_SECRET]"},
	{regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), "[REDACTED:ANTHROPIC_KEY]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), "[REDACTED:OPENAI_KEY]"},
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{30,}`), "[REDACTED:GITHUB_TOKEN]"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "[REDACTED:AWS_KEY_ID]"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._=-]{20,}`), "[REDACTED:BEARER_TOKEN]"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED:PRIVATE_KEY]"},
}

// scrubSecrets masks credentials that scraped pages occasionally carry
// before page text is sent to a provider.
func scrubSecrets(text string) string {
	for _, r := range scrubRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}
