package game

import "fmt"

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PerformanceMessage is the headline shown on the victory screen.
func PerformanceMessage(score int) string {
	switch {
	case score >= 1200:
		return "¡MAESTRO DEL DAW! 🏆"
	case score >= 1000:
		return "¡Excelente trabajo! 🌟"
	case score >= 800:
		return "¡Bien hecho! 👏"
	}
	return "¡Lo lograste! 🎉"
}
