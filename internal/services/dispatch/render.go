package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

func digestLabel(k notification.Kind) string {
	if k == notification.KindWeekly {
		return "weekly"
	}
	return "daily"
}

func renderDigestEmail(p *DigestPayload) (subject, body string) {
	label := digestLabel(p.Kind)
	day := p.Window.To.Format("Mon, 02 Jan 2006")

	if p.AllClear {
		subject = fmt.Sprintf("Your %s claim summary for %s: all clear", label, p.TenantName)
		body = fmt.Sprintf(
			"Hello %s!\n\nNo claim activity in %s for this %s period (%s).\n\n— ReclamoFácil",
			p.UserName, p.TenantName, label, day,
		)
		return subject, body
	}

	subject = fmt.Sprintf("Your %s claim summary for %s: %d claims", label, p.TenantName, p.Counts.Total())

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\n\nClaim activity in %s for this %s period (%s):\n\n", p.UserName, p.TenantName, label, day)
	fmt.Fprintf(&b, "  Open:        %d\n", p.Counts.Open)
	fmt.Fprintf(&b, "  In progress: %d\n", p.Counts.InProgress)
	fmt.Fprintf(&b, "  Resolved:    %d\n", p.Counts.Resolved)
	fmt.Fprintf(&b, "  Closed:      %d\n", p.Counts.Closed)
	if p.Counts.Overdue > 0 {
		fmt.Fprintf(&b, "\n  ⚠ %d claim(s) past their SLA deadline.\n", p.Counts.Overdue)
	}
	b.WriteString("\n— ReclamoFácil")
	return subject, b.String()
}

func renderDigestInApp(p *DigestPayload) (title, description string) {
	title = "Daily claim summary"
	if p.Kind == notification.KindWeekly {
		title = "Weekly claim summary"
	}
	if p.AllClear {
		return title, "No claim activity this period."
	}
	description = fmt.Sprintf("%d claims this period: %d open, %d in progress, %d resolved, %d overdue.",
		p.Counts.Total(), p.Counts.Open, p.Counts.InProgress, p.Counts.Resolved, p.Counts.Overdue)
	return title, description
}

func renderSLAEmail(p *SLAPayload) (subject, body string) {
	subject = fmt.Sprintf("SLA breached: claim #%d (%s)", p.Claim.ID, p.Claim.Subject)
	body = fmt.Sprintf(
		"SLA alert for %s.\n\nClaim #%d (%s) from %s breached its SLA deadline at %s and is now %s overdue.\n\nStatus: %s.\n\n— ReclamoFácil",
		p.TenantName, p.Claim.ID, p.Claim.Subject, p.Claim.CustomerName,
		p.BreachAt.UTC().Format(time.RFC3339), p.Overdue.Round(time.Minute), p.Claim.Status,
	)
	return subject, body
}

func renderSLAInApp(p *SLAPayload) (title, description string) {
	title = fmt.Sprintf("SLA breached: claim #%d", p.Claim.ID)
	description = fmt.Sprintf("%q from %s is %s past its SLA deadline.",
		p.Claim.Subject, p.Claim.CustomerName, p.Overdue.Round(time.Minute))
	return title, description
}
