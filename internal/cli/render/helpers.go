package render

import (
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

var (
	headerStyle   = color.New(color.Bold, color.FgHiWhite)
	addressStyle  = color.New(color.FgWhite)
	faintStyle    = color.New(color.Faint)
	verifiedStyle = color.New(color.FgGreen)
	rejectedStyle = color.New(color.FgRed)
	pendingStyle  = color.New(color.FgYellow)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Keep only the innermost cause of a wrapped error chain
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// stageTitle turns deploy_token into "Deploy Token"
func stageTitle(stage models.Stage) string {
	return cases.Title(language.English).String(strings.ReplaceAll(stage.String(), "_", " "))
}

// shortHash abbreviates a hex string to 0x1234…abcd
func shortHash(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// verificationLabel renders an outcome, or "-" when there is none
func verificationLabel(outcome *models.VerificationOutcome) string {
	if outcome == nil {
		return faintStyle.Sprint("-")
	}
	switch outcome.Status {
	case models.VerificationStatusVerified:
		return verifiedStyle.Sprint("verified")
	case models.VerificationStatusAlreadyVerified:
		return verifiedStyle.Sprint("already verified")
	default:
		return rejectedStyle.Sprint("rejected")
	}
}
