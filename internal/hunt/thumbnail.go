package hunt

import (
	"net/url"
	"strings"
)

// YouTubeID extracts the video id from a youtube.com watch URL or a youtu.be
// short link. It returns "" for anything else.
func YouTubeID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if strings.Contains(u.Hostname(), "youtu.be") {
		return strings.TrimPrefix(u.Path, "/")
	}
	return u.Query().Get("v")
}

// Thumbnail derives a preview image URL for a video URL, or "" when the host
// is not recognised.
func Thumbnail(videoURL string) string {
	id := YouTubeID(videoURL)
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}
