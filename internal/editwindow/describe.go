package editwindow

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// French first: the portals default to French and fall back to English.
var describeMatcher = language.NewMatcher([]language.Tag{
	language.French,
	language.English,
})

// Describe renders a decision as a short label for the portals, in the best
// match for the requested locale (an Accept-Language value or a plain tag
// like "fr"). It holds no policy logic of its own.
func Describe(d Decision, locale string) string {
	tag, _ := language.MatchStrings(describeMatcher, locale)
	base, _ := tag.Base()
	french := base.String() != "en"

	switch {
	case d.Allowed && d.Remaining > 0:
		return remainingLabel(d.Remaining, french)
	case d.Allowed:
		if french {
			return "Modifiable"
		}
		return "Editable"
	case d.Reason == ReasonWindowExpired:
		return expiredLabel(d.ElapsedOverBy, french)
	default:
		if french {
			return "Modification non autorisée"
		}
		return "Editing not permitted"
	}
}

func remainingLabel(d time.Duration, french bool) string {
	n, unit := coarseDuration(d)
	if n == 0 {
		if french {
			return "Moins d'une minute restante"
		}
		return "Under a minute remaining"
	}
	if french {
		// "heure" and "minute" are feminine, "jour" is not.
		suffix := "restant"
		if unit != unitDay {
			suffix = "restante"
		}
		if n > 1 {
			suffix += "s"
		}
		return fmt.Sprintf("%d %s %s", n, frenchUnit(unit, n), suffix)
	}
	return fmt.Sprintf("%d %s remaining", n, englishUnit(unit, n))
}

func expiredLabel(over time.Duration, french bool) string {
	n, unit := coarseDuration(over)
	if n == 0 {
		if french {
			return "Verrouillé"
		}
		return "Locked"
	}
	if french {
		return fmt.Sprintf("Verrouillé depuis %d %s", n, frenchUnit(unit, n))
	}
	return fmt.Sprintf("Locked for %d %s", n, englishUnit(unit, n))
}

type durationUnit int

const (
	unitMinute durationUnit = iota
	unitHour
	unitDay
)

// coarseDuration reduces a duration to its largest whole unit for display.
func coarseDuration(d time.Duration) (int, durationUnit) {
	switch {
	case d >= 24*time.Hour:
		return int(d / (24 * time.Hour)), unitDay
	case d >= time.Hour:
		return int(d / time.Hour), unitHour
	default:
		return int(d / time.Minute), unitMinute
	}
}

func frenchUnit(u durationUnit, n int) string {
	var word string
	switch u {
	case unitDay:
		word = "jour"
	case unitHour:
		word = "heure"
	default:
		word = "minute"
	}
	if n > 1 {
		word += "s"
	}
	return word
}

func englishUnit(u durationUnit, n int) string {
	var word string
	switch u {
	case unitDay:
		word = "day"
	case unitHour:
		word = "hour"
	default:
		word = "minute"
	}
	if n != 1 {
		word += "s"
	}
	return word
}
