package youtube

import "regexp"

// Accepted URL forms: youtube.com/watch?v=ID, youtu.be/ID,
// youtube.com/embed/ID, youtube.com/shorts/ID, youtube.com/live/ID,
// with optional www./m./music. hosts.
var urlPattern = regexp.MustCompile(`^(https?://)?(www\.|m\.|music\.)?(youtube\.com/(watch\?v=|embed/|shorts/|live/)|youtu\.be/)[\w-]{11}([?&].*)?$`)

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([\w-]{11})`),
	regexp.MustCompile(`youtu\.be/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([\w-]{11})`),
}

func IsValidURL(url string) bool {
	return urlPattern.MatchString(url)
}

// ExtractVideoID returns the 11-character video id, or "" when the
// URL carries none.
func ExtractVideoID(url string) string {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
