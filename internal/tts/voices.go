package tts

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// DefaultVoice is used when no voice is configured and the locale gives no
// better match.
const DefaultVoice = "en-US-AriaNeural"

// builtinVoices maps service locales to a sensible default neural voice.
// The first entry doubles as the matcher's fallback.
var builtinVoices = []struct {
	locale string
	name   string
}{
	{"en-US", "en-US-AriaNeural"},
	{"en-GB", "en-GB-SoniaNeural"},
	{"en-AU", "en-AU-NatashaNeural"},
	{"de-DE", "de-DE-KatjaNeural"},
	{"fr-FR", "fr-FR-DeniseNeural"},
	{"es-ES", "es-ES-ElviraNeural"},
	{"es-MX", "es-MX-DaliaNeural"},
	{"it-IT", "it-IT-ElsaNeural"},
	{"pt-BR", "pt-BR-FranciscaNeural"},
	{"nl-NL", "nl-NL-ColetteNeural"},
	{"pl-PL", "pl-PL-ZofiaNeural"},
	{"ru-RU", "ru-RU-SvetlanaNeural"},
	{"tr-TR", "tr-TR-EmelNeural"},
	{"sv-SE", "sv-SE-SofieNeural"},
	{"ja-JP", "ja-JP-NanamiNeural"},
	{"ko-KR", "ko-KR-SunHiNeural"},
	{"zh-CN", "zh-CN-XiaoxiaoNeural"},
	{"zh-TW", "zh-TW-HsiaoChenNeural"},
	{"ar-SA", "ar-SA-ZariyahNeural"},
	{"hi-IN", "hi-IN-SwaraNeural"},
	{"th-TH", "th-TH-PremwadeeNeural"},
	{"vi-VN", "vi-VN-HoaiMyNeural"},
}

var voiceMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(builtinVoices))
	for i, v := range builtinVoices {
		tags[i] = language.MustParse(v.locale)
	}
	return language.NewMatcher(tags)
}()

// ResolveVoice maps a configured voice to a concrete voice name. Explicit
// names pass through; empty or "auto" resolves by the process locale.
func ResolveVoice(voice string) string {
	if voice != "" && !strings.EqualFold(voice, "auto") {
		return voice
	}
	return voiceForLocale(systemLocale())
}

// voiceForLocale picks the closest builtin voice for a BCP 47 or POSIX
// locale string.
func voiceForLocale(locale string) string {
	if locale == "" || locale == "C" || locale == "POSIX" {
		return DefaultVoice
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return DefaultVoice
	}

	_, idx, conf := voiceMatcher.Match(tag)
	if conf == language.No {
		return DefaultVoice
	}
	return builtinVoices[idx].name
}

// systemLocale reads the locale the way gettext does, in that precedence
// order, stripping the codeset and modifier suffixes.
func systemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		v, _, _ = strings.Cut(v, "@")
		return v
	}
	return ""
}
