// Package texts holds every user-facing string, keyed by language code.
package texts

import "fmt"

// BaseLang is used before the user has picked a language and whenever a
// stored code is unknown.
const BaseLang = "en"

// LanguageLabels maps selectable language codes to their button labels.
// Iteration order for keyboards comes from LanguageOrder.
var LanguageLabels = map[string]string{
	"en":       "English",
	"hi":       "Hindi",
	"hinglish": "Hinglish",
}

var LanguageOrder = []string{"en", "hi", "hinglish"}

// SafeLang collapses unknown or empty codes to the base language.
func SafeLang(code string) string {
	if _, ok := LanguageLabels[code]; ok {
		return code
	}
	return BaseLang
}

var welcome = map[string]string{
	"en":       "Welcome! Please select your preferred language to continue.",
	"hi":       "स्वागत है! कृपया आगे बढ़ने के लिए अपनी भाषा चुनें।",
	"hinglish": "Welcome! Aage badhne ke liye apni language chunein.",
}

var verify = map[string]string{
	"en":       "Please verify that you are human to join this chat.",
	"hi":       "जुड़ने के लिए कृपया पुष्टि करें कि आप इंसान हैं।",
	"hinglish": "Please verify karein ki aap human hain taaki channel join ho sake.",
}

var success = map[string]string{
	"en":       "Verification successful. You have been approved.",
	"hi":       "सफल! आपको approve कर दिया गया है।",
	"hinglish": "Verification successful. Aapko approve kar diya gaya hai.",
}

var fail = map[string]string{
	"en":       "Verification failed. Please request to join again.",
	"hi":       "सत्यापन विफल हुआ। कृपया दोबारा join request भेजें।",
	"hinglish": "Verification failed. Kripya dobara request bhejein.",
}

var expired = map[string]string{
	"en":       "Verification expired. Please request to join again.",
	"hi":       "Verification का समय समाप्त हो गया। कृपया दोबारा join request भेजें।",
	"hinglish": "Verification ka time khatam ho gaya. Kripya dobara request bhejein.",
}

var attemptsLeft = map[string]string{
	"en":       "Wrong choice. Attempts left: %d.",
	"hi":       "गलत चयन। शेष प्रयास: %d.",
	"hinglish": "Wrong choice. Attempts left: %d.",
}

func Welcome(lang string) string { return welcome[SafeLang(lang)] }
func Verify(lang string) string  { return verify[SafeLang(lang)] }
func Success(lang string) string { return success[SafeLang(lang)] }
func Fail(lang string) string    { return fail[SafeLang(lang)] }
func Expired(lang string) string { return expired[SafeLang(lang)] }

func AttemptsLeft(lang string, remaining int) string {
	return fmt.Sprintf(attemptsLeft[SafeLang(lang)], remaining)
}

// VerifyOptionHuman is the single correct answer to the challenge.
const VerifyOptionHuman = "human"

// VerifyOptions maps challenge option keys to button labels. Only
// VerifyOptionHuman passes; the decoys exist to trip automation.
var VerifyOptions = map[string]string{
	VerifyOptionHuman: "I am Human",
	"bot":             "I am a Bot",
	"skip":            "Skip Verification",
	"auto":            "Auto Join",
}
