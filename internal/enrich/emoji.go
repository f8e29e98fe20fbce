package enrich

import (
	"database/sql"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// Emoji_Modifier range (Fitzpatrick skin tones).
const (
	skinToneLight = '\U0001F3FB'
	skinToneDark  = '\U0001F3FF'
)

// StripEmoji removes every emoji grapheme cluster from s. All other clusters,
// whitespace included, are kept as they are.
func StripEmoji(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		// Plain ASCII is never an emoji on its own ('#', '*' and digits only
		// become emoji as part of a keycap sequence, which is not ASCII).
		if len(cluster) == 1 {
			b.WriteString(cluster)
			continue
		}
		if gomoji.ContainsEmoji(cluster) {
			continue
		}
		// A skin-tone modifier after a non-emoji base joins that base's
		// cluster, so the remaining clusters are filtered rune by rune.
		for _, r := range gr.Runes() {
			if !isEmojiRune(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// StripEmojiNull applies StripEmoji to a valid value; null passes through.
func StripEmojiNull(ns sql.NullString) sql.NullString {
	if !ns.Valid {
		return ns
	}
	return sql.NullString{String: StripEmoji(ns.String), Valid: true}
}

func isEmojiRune(r rune) bool {
	if r < 0x80 {
		return false
	}
	if r >= skinToneLight && r <= skinToneDark {
		return true
	}
	return gomoji.ContainsEmoji(string(r))
}
