package importer

import (
	"strings"
	"unicode"

	"github.com/liftlog/liftlog/internal/models"
)

// categoryKeywords is checked in order; the first keyword whose words start
// consecutive words of the exercise name wins, so "row" matches "Rows" but
// not "Narrow".
var categoryKeywords = []struct {
	keyword  string
	category models.Category
}{
	{"face pull", models.CategoryShoulders},
	{"upright row", models.CategoryShoulders},
	{"lateral raise", models.CategoryShoulders},
	{"rowing machine", models.CategoryCardio},
	{"calf", models.CategoryLegs},
	{"calves", models.CategoryLegs},
	{"squat", models.CategoryLegs},
	{"lunge", models.CategoryLegs},
	{"leg press", models.CategoryLegs},
	{"leg curl", models.CategoryLegs},
	{"leg extension", models.CategoryLegs},
	{"deadlift", models.CategoryLegs},
	{"hip thrust", models.CategoryLegs},
	{"leg raise", models.CategoryCore},
	{"crunch", models.CategoryCore},
	{"plank", models.CategoryCore},
	{"sit up", models.CategoryCore},
	{"hyperextension", models.CategoryBack},
	{"row", models.CategoryBack},
	{"pull", models.CategoryBack},
	{"chin", models.CategoryBack},
	{"lat", models.CategoryBack},
	{"shrug", models.CategoryBack},
	{"bench", models.CategoryChest},
	{"chest", models.CategoryChest},
	{"fly", models.CategoryChest},
	{"push up", models.CategoryChest},
	{"dip", models.CategoryChest},
	{"overhead press", models.CategoryShoulders},
	{"shoulder", models.CategoryShoulders},
	{"curl", models.CategoryArms},
	{"tricep", models.CategoryArms},
	{"skull", models.CategoryArms},
	{"pushdown", models.CategoryArms},
	{"run", models.CategoryCardio},
	{"bike", models.CategoryCardio},
}

// InferCategory guesses a category from an exercise name. Names that match no
// keyword yield the zero Category.
func InferCategory(name string) models.Category {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, k := range categoryKeywords {
		if containsPhrase(words, strings.Fields(k.keyword)) {
			return k.category
		}
	}
	return ""
}

// containsPhrase reports whether phrase occurs in words, each phrase word
// matching as a prefix of its word.
func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if !strings.HasPrefix(words[i+j], p) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
