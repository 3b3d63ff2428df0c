package gate

import (
	"fmt"
	"math/rand"

	"joingate/internal/texts"
)

// Callback payload formats. These are parsed exactly once, at the transport
// edge, into ChoiceEvent values.
func languageData(token, lang string) string { return fmt.Sprintf("lang:%s:%s", token, lang) }
func verifyData(token, option string) string { return fmt.Sprintf("verify:%s:%s", token, option) }

// languageKeyboard lays out one language per row.
func languageKeyboard(token string) [][]Choice {
	rows := make([][]Choice, 0, len(texts.LanguageOrder))

	for _, code := range texts.LanguageOrder {
		rows = append(rows, []Choice{{
			Label: texts.LanguageLabels[code],
			Data:  languageData(token, code),
		}})
	}

	return rows
}

// verifyKeyboard shuffles the challenge options into rows of two so the
// correct button never sits in a fixed position.
func verifyKeyboard(token string) [][]Choice {
	options := make([]Choice, 0, len(texts.VerifyOptions))
	for key, label := range texts.VerifyOptions {
		options = append(options, Choice{Label: label, Data: verifyData(token, key)})
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	var rows [][]Choice
	for i := 0; i < len(options); i += 2 {
		end := min(i+2, len(options))
		rows = append(rows, options[i:end])
	}

	return rows
}
