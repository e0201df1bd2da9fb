package tts

import "testing"

func TestResolveVoice_ExplicitPassthrough(t *testing.T) {
	if got := ResolveVoice("ja-JP-KeitaNeural"); got != "ja-JP-KeitaNeural" {
		t.Errorf("Expected explicit voice untouched, got %q", got)
	}
}

func TestResolveVoice_AutoFromEnvironment(t *testing.T) {
	t.Setenv("LC_ALL", "ja_JP.UTF-8")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "de_DE.UTF-8")

	// LC_ALL wins over LANG.
	if got := ResolveVoice("auto"); got != "ja-JP-NanamiNeural" {
		t.Errorf("Expected ja-JP voice, got %q", got)
	}

	t.Setenv("LC_ALL", "")
	if got := ResolveVoice(""); got != "de-DE-KatjaNeural" {
		t.Errorf("Expected de-DE voice from LANG, got %q", got)
	}
}

func TestVoiceForLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"", DefaultVoice},
		{"C", DefaultVoice},
		{"POSIX", DefaultVoice},
		{"en_US", "en-US-AriaNeural"},
		{"en-GB", "en-GB-SoniaNeural"},
		{"ja", "ja-JP-NanamiNeural"},
		{"zh", "zh-CN-XiaoxiaoNeural"},
		{"zh_TW", "zh-TW-HsiaoChenNeural"},
		{"pt_BR", "pt-BR-FranciscaNeural"},
		{"!!!", DefaultVoice},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			if got := voiceForLocale(tt.locale); got != tt.want {
				t.Errorf("Expected %q for locale %q, got %q", tt.want, tt.locale, got)
			}
		})
	}
}

func TestSystemLocale_Precedence(t *testing.T) {
	t.Setenv("LC_ALL", "fr_FR.UTF-8")
	t.Setenv("LC_MESSAGES", "it_IT.UTF-8")
	t.Setenv("LANG", "es_ES.UTF-8")

	if got := systemLocale(); got != "fr_FR" {
		t.Errorf("Expected fr_FR from LC_ALL, got %q", got)
	}

	t.Setenv("LC_ALL", "")
	if got := systemLocale(); got != "it_IT" {
		t.Errorf("Expected it_IT from LC_MESSAGES, got %q", got)
	}

	t.Setenv("LC_MESSAGES", "")
	if got := systemLocale(); got != "es_ES" {
		t.Errorf("Expected es_ES from LANG, got %q", got)
	}
}
