package domain

import "errors"

// MediaKind selects which capture flag a toggle refers to.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
	MediaBoth  MediaKind = "both"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

// MediaToggle is one participant-originated flag change. For MediaBoth
// both fields are meaningful; otherwise only the matching one is read.
type MediaToggle struct {
	Kind  MediaKind
	Audio bool
	Video bool
}

// MediaStatus holds a participant's own capture flags. Clients start
// with mic and camera on, so the zero value is not the default.
type MediaStatus struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

func DefaultMediaStatus() MediaStatus {
	return MediaStatus{Audio: true, Video: true}
}

// Apply updates the flags for the toggle's kind. Flags are applied
// per-kind and re-applying the same value is a no-op; the returned
// bool reports whether anything actually changed.
func (s *MediaStatus) Apply(t MediaToggle) (bool, error) {
	changed := false
	switch t.Kind {
	case MediaAudio:
		if s.Audio != t.Audio {
			s.Audio = t.Audio
			changed = true
		}
	case MediaVideo:
		if s.Video != t.Video {
			s.Video = t.Video
			changed = true
		}
	case MediaBoth:
		if s.Audio != t.Audio {
			s.Audio = t.Audio
			changed = true
		}
		if s.Video != t.Video {
			s.Video = t.Video
			changed = true
		}
	default:
		return false, ErrUnknownMediaKind
	}
	return changed, nil
}
