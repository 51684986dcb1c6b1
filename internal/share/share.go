// Package share builds social share targets for a link, branching on
// mobile vs desktop user agents the same way the in-app share buttons do.
package share

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type Target struct {
	Platform  string `json:"platform"`
	Href      string `json:"href"`
	Clipboard bool   `json:"clipboard"`
	Mobile    bool   `json:"mobile"`
}

var mobileUARe = regexp.MustCompile(`(?i)android|iphone|ipad|ipod|mobile`)

func IsMobileUA(ua string) bool {
	return mobileUARe.MatchString(ua)
}

var Platforms = []string{
	"whatsapp", "facebook", "twitter", "x", "telegram",
	"linkedin", "reddit", "email", "sms", "instagram",
}

// Build returns the share target for a platform. Platforms without a
// usable web endpoint on the current device report Clipboard=true and
// an empty Href; the caller copies the link instead.
func Build(platform, rawURL, title, userAgent string) (Target, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if rawURL == "" {
		return Target{}, fmt.Errorf("url is required")
	}

	mobile := IsMobileUA(userAgent)
	u := url.QueryEscape(rawURL)
	t := url.QueryEscape(title)
	text := u
	if title != "" {
		text = url.QueryEscape(title + " " + rawURL)
	}

	target := Target{Platform: platform, Mobile: mobile}

	switch platform {
	case "whatsapp":
		if mobile {
			target.Href = "whatsapp://send?text=" + text
		} else {
			target.Href = "https://web.whatsapp.com/send?text=" + text
		}
	case "facebook":
		target.Href = "https://www.facebook.com/sharer/sharer.php?u=" + u
	case "twitter", "x":
		target.Platform = "twitter"
		target.Href = "https://twitter.com/intent/tweet?url=" + u
		if title != "" {
			target.Href += "&text=" + t
		}
	case "telegram":
		target.Href = "https://t.me/share/url?url=" + u
		if title != "" {
			target.Href += "&text=" + t
		}
	case "linkedin":
		target.Href = "https://www.linkedin.com/sharing/share-offsite/?url=" + u
	case "reddit":
		target.Href = "https://www.reddit.com/submit?url=" + u
		if title != "" {
			target.Href += "&title=" + t
		}
	case "email":
		target.Href = "mailto:?subject=" + t + "&body=" + u
	case "sms":
		if !mobile {
			target.Clipboard = true
			break
		}
		target.Href = "sms:?body=" + text
	case "instagram":
		// Instagram has no share-by-URL endpoint. On mobile we can at
		// least open the app; the link itself goes to the clipboard.
		target.Clipboard = true
		if mobile {
			target.Href = "instagram://app"
		}
	default:
		return Target{}, fmt.Errorf("unsupported platform %q", platform)
	}

	return target, nil
}
