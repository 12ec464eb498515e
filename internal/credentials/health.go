package credentials

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/vswrite/agent-core/internal/extensions"
	"github.com/vswrite/agent-core/internal/signature"
	"github.com/vswrite/agent-core/pkg/models"
)

// Severity classifies one diagnostic finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Category groups findings by the subsystem they describe.
type Category string

const (
	CategoryCredentials Category = "credentials"
	CategoryExtensions  Category = "extensions"
	CategoryBuild       Category = "build"
	CategoryEnvironment Category = "environment"
)

// Finding is one diagnostic entry.
type Finding struct {
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
}

// Report is the full diagnostic run, with a tally by severity.
type Report struct {
	Findings []Finding      `json:"findings"`
	Tally    map[Severity]int `json:"tally"`
}

func newReport() *Report {
	return &Report{Tally: map[Severity]int{SeverityInfo: 0, SeverityWarning: 0, SeverityError: 0}}
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
	r.Tally[f.Severity]++
}

// OK reports whether the run surfaced no error-severity findings.
func (r *Report) OK() bool {
	return r.Tally[SeverityError] == 0
}

// Check runs every diagnostic and returns the aggregated report. registry
// may be nil, in which case the extension-signature check is skipped.
func Check(registry *extensions.Registry) *Report {
	report := newReport()
	checkCredentials(report, os.Getenv)
	checkExtensions(report, registry)
	checkBuild(report)
	checkEnvironment(report, os.Getenv)
	return report
}

// checkCredentials flags when no provider has a usable API key configured.
// Grounded on security_audit.go's AuditSecurity: accumulate findings, never
// fail fast, so one missing key doesn't hide a second problem.
func checkCredentials(report *Report, getenv func(string) string) {
	providers := []models.Provider{models.ProviderOpenAI, models.ProviderClaude, models.ProviderOpenRouter}
	anyConfigured := false
	for _, p := range providers {
		envVar, _, available := Lookup(p, getenv)
		if available {
			anyConfigured = true
			continue
		}
		report.add(Finding{
			Severity:    SeverityInfo,
			Category:    CategoryCredentials,
			Message:     fmt.Sprintf("%s has no API key configured", p),
			Remediation: fmt.Sprintf("set %s to enable this provider", envVar),
		})
	}
	if !anyConfigured {
		report.add(Finding{
			Severity:    SeverityWarning,
			Category:    CategoryCredentials,
			Message:     "no hosted LLM provider has an API key configured",
			Remediation: "set one of OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY, or run against ollama which needs none",
		})
	}
}

// checkExtensions surfaces the signature.Verify verdict for every currently
// loaded extension, so an untrusted or invalid bundle is visible at a
// glance rather than silently running.
func checkExtensions(report *Report, registry *extensions.Registry) {
	if registry == nil {
		return
	}
	for _, id := range registry.ListIDs() {
		manifest, ok := registry.Manifest(id)
		if !ok {
			continue
		}
		verdict := signature.Verify(manifest)
		switch verdict.Status {
		case signature.StatusVerified:
			report.add(Finding{Severity: SeverityInfo, Category: CategoryExtensions, Message: fmt.Sprintf("extension %q: signature verified (%s)", id, verdict.PublisherID)})
		case signature.StatusUnsigned:
			report.add(Finding{
				Severity:    SeverityWarning,
				Category:    CategoryExtensions,
				Message:     fmt.Sprintf("extension %q is unsigned", id),
				Remediation: "sign the manifest before distributing outside local development",
			})
		case signature.StatusUntrustedPublisher:
			report.add(Finding{
				Severity:    SeverityWarning,
				Category:    CategoryExtensions,
				Message:     fmt.Sprintf("extension %q: publisher %q is not in the trusted-publisher table", id, verdict.PublisherID),
				Remediation: "verify the publisher id and public key before trusting this extension",
			})
		case signature.StatusInvalidSignature:
			report.add(Finding{
				Severity:    SeverityError,
				Category:    CategoryExtensions,
				Message:     fmt.Sprintf("extension %q: %s", id, verdict.Error),
				Remediation: "re-download or re-sign the extension bundle",
			})
		}
	}
}

// checkBuild warns when running a non-release (devel) build, the standard
// library's own marker for a binary built without a pinned module version.
func checkBuild(report *Report) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if info.Main.Version == "(devel)" || info.Main.Version == "" {
		report.add(Finding{
			Severity:    SeverityInfo,
			Category:    CategoryBuild,
			Message:     "running a development build, not a tagged release",
			Remediation: "build from a tagged module version for production use",
		})
	}
}

// checkEnvironment verifies per-platform environment variables the agent
// relies on for path expansion and workspace resolution are present.
func checkEnvironment(report *Report, getenv func(string) string) {
	var homeVar string
	switch runtime.GOOS {
	case "windows":
		homeVar = "USERPROFILE"
	default:
		homeVar = "HOME"
	}
	if getenv(homeVar) == "" {
		report.add(Finding{
			Severity:    SeverityWarning,
			Category:    CategoryEnvironment,
			Message:     fmt.Sprintf("%s is not set", homeVar),
			Remediation: fmt.Sprintf("set %s so workspace paths can expand correctly", homeVar),
		})
	}
}
