package tipping

import "fmt"

// MediaKind tags the optional attachment on a donation.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaVoice MediaKind = "voice"
	MediaVideo MediaKind = "video"
)

// Media is NoMedia, Voice(url), or Video(url). A donation carries at most one.
type Media struct {
	kind MediaKind
	url  string
}

// NoMedia is the empty attachment.
func NoMedia() Media {
	return Media{}
}

// Voice attaches a voice message reference.
func Voice(url string) Media {
	return Media{kind: MediaVoice, url: url}
}

// Video attaches a video message reference.
func Video(url string) Media {
	return Media{kind: MediaVideo, url: url}
}

// ParseMedia rebuilds a stored attachment.
func ParseMedia(kind, url string) (Media, error) {
	switch MediaKind(kind) {
	case MediaNone:
		if url != "" {
			return Media{}, fmt.Errorf("media url without kind")
		}
		return NoMedia(), nil
	case MediaVoice:
		return Voice(url), nil
	case MediaVideo:
		return Video(url), nil
	default:
		return Media{}, fmt.Errorf("unknown media kind %q", kind)
	}
}

func (m Media) Kind() MediaKind {
	return m.kind
}

func (m Media) URL() string {
	return m.url
}

// IsNone reports whether no attachment is present.
func (m Media) IsNone() bool {
	return m.kind == MediaNone
}

// Voice returns the voice reference when the attachment is a voice message.
func (m Media) Voice() (string, bool) {
	if m.kind != MediaVoice {
		return "", false
	}
	return m.url, true
}

// Video returns the video reference when the attachment is a video message.
func (m Media) Video() (string, bool) {
	if m.kind != MediaVideo {
		return "", false
	}
	return m.url, true
}
