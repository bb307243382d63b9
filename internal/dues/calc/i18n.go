package calc

import "fmt"

// quarter descriptions by locale; any locale other than "de" falls back
// to English.
var quarterDescriptions = map[string][4]string{
	"en": {
		"for the whole year %d",
		"from second quarter %d",
		"from third quarter %d",
		"from fourth quarter %d",
	},
	"de": {
		"für das ganze Jahr %d",
		"ab zweitem Quartal %d",
		"ab drittem Quartal %d",
		"ab viertem Quartal %d",
	},
}

func describeQuarter(quarter, year int, locale string) string {
	texts, ok := quarterDescriptions[locale]
	if !ok {
		texts = quarterDescriptions["en"]
	}
	return fmt.Sprintf(texts[quarter-1], year)
}
