package mail

import (
	"fmt"
	"strings"

	"github.com/mx-space/landing/internal/pkg/metrics"
)

const (
	KindConfirmation = "confirmation"
	KindLaunch       = "launch"
)

// Site is the branding rendered into every email.
type Site struct {
	Name string
	URL  string
}

// Notifier renders landing templates and hands them to a Transport.
type Notifier struct {
	transport Transport
	site      Site
}

func NewNotifier(t Transport, site Site) *Notifier {
	if strings.TrimSpace(site.Name) == "" {
		site.Name = "Coming Soon"
	}
	return &Notifier{transport: t, site: site}
}

// SendConfirmation tells a new subscriber they are on the list.
func (n *Notifier) SendConfirmation(to string) error {
	html, err := render(confirmationTemplate, n.data(to))
	if err != nil {
		return err
	}
	return n.send(KindConfirmation, Message{
		To:      []string{to},
		Subject: fmt.Sprintf("[%s] You're on the list", n.site.Name),
		HTML:    html,
		Text:    fmt.Sprintf("Thanks for signing up. We will email %s when %s goes live.", to, n.site.Name),
	})
}

// SendLaunchNotice tells a subscriber the site is live.
func (n *Notifier) SendLaunchNotice(to string) error {
	html, err := render(launchTemplate, n.data(to))
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s is live!", n.site.Name)
	if n.site.URL != "" {
		text += " " + n.site.URL
	}
	return n.send(KindLaunch, Message{
		To:      []string{to},
		Subject: fmt.Sprintf("[%s] We're live", n.site.Name),
		HTML:    html,
		Text:    text,
	})
}

func (n *Notifier) data(to string) TemplateData {
	return TemplateData{SiteName: n.site.Name, SiteURL: n.site.URL, Email: to}
}

func (n *Notifier) send(kind string, msg Message) error {
	if err := n.transport.Send(msg); err != nil {
		metrics.MailSent.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("send %s mail: %w", kind, err)
	}
	metrics.MailSent.WithLabelValues(kind, "ok").Inc()
	return nil
}
