package notification

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders base units as a grouped decimal, e.g. 1234500000 with 6 decimals is "1,234.5"
func FormatAmount(units int64, decimals int) string {
	if decimals <= 0 {
		return printer.Sprintf("%d", units)
	}

	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}

	scale := int64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	whole := units / scale
	frac := units % scale

	out := sign + printer.Sprintf("%d", whole)
	if frac == 0 {
		return out
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", decimals, frac), "0")
	return out + "." + fracStr
}

// NotificationID is stable per game and recipient kind so that clients dedupe retries
func NotificationID(gameID uuid.UUID, kind domain.RecipientKind) string {
	return truncate(fmt.Sprintf("results-%s-%s", gameID, kind), MaxIDLength)
}

func gameLabel(game *domain.Game) string {
	if game.Theme != "" {
		return game.Theme + " trivia"
	}
	return "trivia"
}

func (d *Dispatcher) messageFor(game *domain.Game, r domain.Recipient) (title, body string) {
	label := gameLabel(game)
	if r.Kind == domain.RecipientWinner {
		title = TitleWinner
		body = fmt.Sprintf(BodyWinnerFormat, r.Rank, label, FormatAmount(r.Prize, d.cfg.TokenDecimals), d.cfg.TokenSymbol)
	} else {
		// identical for every participant so tokens batch per URL
		title = TitleParticipant
		body = fmt.Sprintf(BodyResultsFormat, label)
	}
	return truncate(title, MaxTitleLength), truncate(body, MaxBodyLength)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
