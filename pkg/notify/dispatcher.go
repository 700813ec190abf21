// Package notify turns new articles into outbound email notifications.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/feedmailer/pkg/domain"
)

//go:generate moq -out mocks/sender.go -pkg mocks -skip-ensure -fmt goimports . Sender

// Sender delivers a single rendered message
type Sender interface {
	Send(ctx context.Context, subject, plainBody, htmlBody string) error
}

// Dispatcher sends one notification per new article, in order. A failed send
// is recorded in its outcome and never stops the remaining articles; retries
// across invocations are the caller's policy, not the dispatcher's.
type Dispatcher struct {
	sender        Sender
	subjectPrefix string
	htmlPolicy    *bluemonday.Policy // keeps basic markup for the html body
	textPolicy    *bluemonday.Policy // strips all tags for the plaintext body
}

// NewDispatcher creates a dispatcher. subjectPrefix, when set, is prepended
// to every subject line.
func NewDispatcher(sender Sender, subjectPrefix string) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		subjectPrefix: subjectPrefix,
		htmlPolicy:    bluemonday.UGCPolicy(),
		textPolicy:    bluemonday.StrictPolicy(),
	}
}

// Dispatch sends a notification for each article, preserving order, and
// returns a per-article outcome. No short-circuit on failure.
func (d *Dispatcher) Dispatch(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
	outcomes := make([]domain.NotificationOutcome, 0, len(articles))

	for _, a := range articles {
		err := d.send(ctx, a)
		if err != nil {
			lgr.Printf("[WARN] failed to notify for %q (%s): %v", a.Title, a.Identity, err)
		}
		outcomes = append(outcomes, domain.NotificationOutcome{
			Identity:  a.Identity,
			Delivered: err == nil,
			Err:       err,
		})
	}

	return outcomes
}

// send renders and delivers the notification for one article
func (d *Dispatcher) send(ctx context.Context, a domain.Article) error {
	subject := a.Title
	if d.subjectPrefix != "" {
		subject = d.subjectPrefix + " " + a.Title
	}
	return d.sender.Send(ctx, subject, d.renderPlain(a), d.renderHTML(a))
}

// renderPlain builds the plaintext body: title, date if known, link, content
func (d *Dispatcher) renderPlain(a domain.Article) string {
	var b strings.Builder
	b.WriteString(a.Title)
	b.WriteString("\n")
	if a.Published != nil {
		fmt.Fprintf(&b, "\nDate: %s", a.Published.Format(time.RFC1123Z))
	}
	fmt.Fprintf(&b, "\nLink: %s", a.Link)
	if a.Content != "" {
		fmt.Fprintf(&b, "\n\n%s", strings.TrimSpace(d.textPolicy.Sanitize(a.Content)))
	}
	return b.String()
}

// renderHTML builds the html body with the feed-provided content sanitized.
// Returns empty when the article carries no content, falling back to plaintext.
func (d *Dispatcher) renderHTML(a domain.Article) string {
	if a.Content == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2><a href=%q>%s</a></h2>\n", a.Link, html.EscapeString(a.Title))
	if a.Published != nil {
		fmt.Fprintf(&b, "<p>Article date: %s</p>\n", a.Published.Format(time.RFC1123Z))
	}
	b.WriteString(d.htmlPolicy.Sanitize(a.Content))
	return b.String()
}
