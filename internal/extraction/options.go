package extraction

import "fmt"

// Option toggle names accepted by ToggleOption.
const (
	OptionAudioOnly       = "audioOnly"
	OptionSubtitleOnly    = "subtitleOnly"
	OptionVideoOnly       = "videoOnly"
	OptionIncludeVideo    = "includeVideo"
	OptionRemoveLetterbox = "removeLetterbox"
)

// Options is the extraction configuration shared by both modes. At most
// one of AudioOnly, SubtitleOnly, and VideoOnly may be set; IncludeVideo
// and RemoveLetterbox are independent modifiers outside that group.
type Options struct {
	AudioOnly       bool
	SubtitleOnly    bool
	VideoOnly       bool
	IncludeVideo    bool
	RemoveLetterbox bool
}

// toggled flips the named flag and re-applies the exclusion rule: the flag
// just enabled wins, clearing the rest of its group. The result never
// leaves an invalid intermediate state observable.
func (o Options) toggled(name string) (Options, error) {
	switch name {
	case OptionAudioOnly:
		o.AudioOnly = !o.AudioOnly
		if o.AudioOnly {
			o.SubtitleOnly = false
			o.VideoOnly = false
		}
	case OptionSubtitleOnly:
		o.SubtitleOnly = !o.SubtitleOnly
		if o.SubtitleOnly {
			o.AudioOnly = false
			o.VideoOnly = false
		}
	case OptionVideoOnly:
		o.VideoOnly = !o.VideoOnly
		if o.VideoOnly {
			o.AudioOnly = false
			o.SubtitleOnly = false
		}
	case OptionIncludeVideo:
		o.IncludeVideo = !o.IncludeVideo
	case OptionRemoveLetterbox:
		o.RemoveLetterbox = !o.RemoveLetterbox
	default:
		return o, fmt.Errorf("unknown extraction option %q", name)
	}
	return o, nil
}
