package analyzer

import (
	"regexp"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
)

// securityPattern is one entry in the fixed anti-pattern catalogue. Every
// match is a warning-severity security issue; the catalogue trades recall
// for simplicity, so findings are advisory rather than fatal.
type securityPattern struct {
	code    string
	message string
	re      *regexp.Regexp
}

var securityPatterns = []securityPattern{
	{
		code:    "hardcoded-password",
		message: "possible hardcoded password",
		re:      regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["'][^"']{4,}["']`),
	},
	{
		code:    "hardcoded-secret",
		message: "possible hardcoded secret or API key",
		re:      regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret[_-]?key|auth[_-]?token|access[_-]?token)\s*[:=]\s*["'][^"']{8,}["']`),
	},
	{
		code:    "aws-access-key",
		message: "AWS access key ID in source",
		re:      regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	{
		code:    "private-key",
		message: "private key material in source",
		re:      regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	},
	{
		code:    "sql-concat",
		message: "SQL built by string concatenation",
		re:      regexp.MustCompile(`(?i)(query|execute|exec)\s*\(\s*["'][^"']*\b(select|insert|update|delete)\b[^"']*["']\s*\+`),
	},
	{
		code:    "sql-interpolation",
		message: "SQL built by string interpolation",
		re:      regexp.MustCompile("(?i)(query|execute|exec)\\s*\\(\\s*(f[\"']|`)[^`\"']*\\b(select|insert|update|delete)\\b[^`\"']*(\\$\\{|\\{)"),
	},
	{
		code:    "shell-interpolation",
		message: "shell command built from interpolated input",
		re:      regexp.MustCompile("(?i)\\b(system|popen|exec|execSync|spawn|spawnSync|check_output|run|call)\\s*\\(\\s*(f[\"']|`)[^`\"']*(\\$\\{|\\{)"),
	},
	{
		code:    "dynamic-eval",
		message: "dynamic code evaluation",
		re:      regexp.MustCompile(`\b(eval|new\s+Function)\s*\(`),
	},
}

const (
	maxSecurityIssuesPerFile = 20
	maxScanLineLen           = 500 // longer lines are almost always minified
)

// scanSecurity applies the catalogue line by line so every finding carries a
// line number.
func scanSecurity(f sourceFile) []domain.Issue {
	var issues []domain.Issue
	for i, line := range strings.Split(string(f.data), "\n") {
		if len(line) > maxScanLineLen {
			continue
		}
		for _, p := range securityPatterns {
			if !p.re.MatchString(line) {
				continue
			}
			issues = append(issues, domain.Issue{
				Severity: domain.SeverityWarning,
				Category: domain.CategorySecurity,
				File:     f.rel,
				Line:     i + 1,
				Code:     p.code,
				Message:  p.message,
			})
			if len(issues) >= maxSecurityIssuesPerFile {
				return issues
			}
		}
	}
	return issues
}
