package language

import (
	"strings"

	lang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// bibliographic maps ISO 639-2/B codes to the terminological codes the
// matcher understands (ffmpeg and MKV muxers commonly emit the /B forms).
var bibliographic = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// words maps full English language names to 3-letter codes so CLI flags
// accept e.g. --lang french.
var words = map[string]string{
	"arabic":     "ara",
	"chinese":    "zho",
	"danish":     "dan",
	"dutch":      "nld",
	"english":    "eng",
	"finnish":    "fin",
	"french":     "fra",
	"german":     "deu",
	"hindi":      "hin",
	"italian":    "ita",
	"japanese":   "jpn",
	"korean":     "kor",
	"norwegian":  "nor",
	"polish":     "pol",
	"portuguese": "por",
	"russian":    "rus",
	"spanish":    "spa",
	"swedish":    "swe",
}

// Undetermined is the code used for selectors nothing recognizes.
const Undetermined = "und"

func canonical(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if mapped, ok := words[normalized]; ok {
		return mapped
	}
	if mapped, ok := bibliographic[normalized]; ok {
		return mapped
	}
	return normalized
}

// ToISO3 converts any recognized language selector (2-letter code, 3-letter
// code, or English name) to an ISO 639-2/T 3-letter code. Unrecognized
// 3-letter input passes through unchanged; anything else yields "und".
func ToISO3(code string) string {
	normalized := canonical(code)
	if normalized == "" {
		return Undetermined
	}
	if tag, err := lang.Parse(normalized); err == nil {
		if base, confidence := tag.Base(); confidence > lang.No {
			return base.ISO3()
		}
	}
	if len(normalized) == 3 {
		return normalized
	}
	return Undetermined
}

// DisplayName returns a human-readable English name for any recognized
// selector, the uppercased input for unrecognized codes, and "Unknown" for
// empty input.
func DisplayName(code string) string {
	normalized := canonical(code)
	if normalized == "" || normalized == Undetermined {
		return "Unknown"
	}
	if tag, err := lang.Parse(normalized); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(normalized)
}

// NormalizeList converts selectors to 3-letter codes, dropping duplicates
// and anything unrecognized. Order of first occurrence is preserved.
func NormalizeList(selectors []string) []string {
	if len(selectors) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(selectors))
	seen := make(map[string]struct{}, len(selectors))
	for _, selector := range selectors {
		code := ToISO3(selector)
		if code == Undetermined {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
