package app

import "fmt"

// Footer link names accepted by WithLinks.
const (
	LinkFeedback = "feedback"
	LinkDonate   = "donate"
	LinkTerms    = "terms"
	LinkPrivacy  = "privacy"
)

// FooterLink is one anchor in the footer.
type FooterLink struct {
	URL  string
	Text string
	Icon string
}

// FooterConfig is the content of the site footer.
type FooterConfig struct {
	Brand       string
	Copyright   string
	Description string
	Feedback    FooterLink
	Donate      FooterLink
	Terms       FooterLink
	Privacy     FooterLink
}

// DefaultFooter returns the built-in footer content.
func DefaultFooter() FooterConfig {
	return FooterConfig{
		Brand:       "WikiHop",
		Copyright:   "© 2024 WikiHop. All rights reserved.",
		Description: "Navigate through your favorite wikis in this addictive link-following minigame.",
		Feedback:    FooterLink{URL: "https://twitter.com/spr3adsh33t", Text: "Feedback", Icon: "X"},
		Donate:      FooterLink{URL: "https://buymeacoffee.com/spr3adsh33t", Text: "Buy Me a Coffee", Icon: "☕"},
		Terms:       FooterLink{URL: "/terms", Text: "Terms of Service", Icon: "📋"},
		Privacy:     FooterLink{URL: "/privacy", Text: "Privacy Policy", Icon: "🔒"},
	}
}

// WithLinks returns a copy of f with the named links replaced. Empty fields of
// an override keep the current value.
func (f FooterConfig) WithLinks(links map[string]FooterLink) (FooterConfig, error) {
	for name, override := range links {
		var target *FooterLink
		switch name {
		case LinkFeedback:
			target = &f.Feedback
		case LinkDonate:
			target = &f.Donate
		case LinkTerms:
			target = &f.Terms
		case LinkPrivacy:
			target = &f.Privacy
		default:
			return f, fmt.Errorf("unknown footer link %q", name)
		}
		if override.URL != "" {
			target.URL = override.URL
		}
		if override.Text != "" {
			target.Text = override.Text
		}
		if override.Icon != "" {
			target.Icon = override.Icon
		}
	}
	return f, nil
}

// External returns the links that open in a new tab.
func (f FooterConfig) External() []FooterLink {
	return []FooterLink{f.Feedback, f.Donate}
}

// Legal returns the links of the bottom bar.
func (f FooterConfig) Legal() []FooterLink {
	return []FooterLink{f.Terms, f.Privacy}
}
