package gate

import (
	"strings"
	"testing"

	"joingate/internal/texts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageKeyboard(t *testing.T) {
	rows := languageKeyboard("tok")
	require.Len(t, rows, len(texts.LanguageOrder))

	for i, code := range texts.LanguageOrder {
		require.Len(t, rows[i], 1, "one language per row")
		assert.Equal(t, texts.LanguageLabels[code], rows[i][0].Label)
		assert.Equal(t, "lang:tok:"+code, rows[i][0].Data)
	}
}

func TestVerifyKeyboardCarriesEveryOptionOnce(t *testing.T) {
	rows := verifyKeyboard("tok")

	seen := make(map[string]int)
	for _, row := range rows {
		assert.LessOrEqual(t, len(row), 2)
		for _, choice := range row {
			parts := strings.Split(choice.Data, ":")
			require.Len(t, parts, 3)
			assert.Equal(t, "verify", parts[0])
			assert.Equal(t, "tok", parts[1])
			seen[parts[2]]++
		}
	}

	require.Len(t, seen, len(texts.VerifyOptions))
	for option, count := range seen {
		assert.Equal(t, 1, count, "option %q appears once", option)
		assert.Contains(t, texts.VerifyOptions, option)
	}
}
