package richtext

import (
	"net/url"
	"strings"
)

// EmbedURL rewrites known video and sandbox URLs into their embeddable form.
// Other URLs are returned unchanged.
func EmbedURL(raw string) string {
	switch {
	case strings.Contains(raw, "youtu.be/"):
		id := afterCut(raw, "youtu.be/", "?")
		return "https://www.youtube.com/embed/" + id
	case strings.Contains(raw, "youtube.com/watch"):
		u, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		return "https://www.youtube.com/embed/" + u.Query().Get("v")
	case strings.Contains(raw, "vimeo.com/"):
		if strings.Contains(raw, "player.vimeo.com/") {
			return raw
		}
		return "https://player.vimeo.com/video/" + afterCut(raw, "vimeo.com/", "?")
	case strings.Contains(raw, "codepen.io/"):
		return strings.Replace(raw, "/pen/", "/embed/", 1)
	default:
		return raw
	}
}

// afterCut returns the text after sep, truncated at the first stop.
func afterCut(s, sep, stop string) string {
	_, rest, _ := strings.Cut(s, sep)
	head, _, _ := strings.Cut(rest, stop)
	return head
}

func aspectClass(ratio string) string {
	switch ratio {
	case "4:3":
		return "aspect-[4/3]"
	case "1:1":
		return "aspect-square"
	case "21:9":
		return "aspect-[21/9]"
	default:
		return "aspect-video"
	}
}
