package youtube

import "testing"

func TestIsValidURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"http://youtube.com/embed/dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
	}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = false, want true", u)
		}
	}

	invalid := []string{
		"",
		"https://vimeo.com/12345678",
		"https://www.youtube.com/watch?v=short",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"not a url",
	}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = true, want false", u)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":      "dQw4w9WgXcQ",
		"https://youtu.be/AbC-123_xyz":                     "AbC-123_xyz",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":        "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ":         "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1s": "dQw4w9WgXcQ",
		"https://vimeo.com/12345678":                       "",
	}
	for url, want := range cases {
		if got := ExtractVideoID(url); got != want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", url, got, want)
		}
	}
}
