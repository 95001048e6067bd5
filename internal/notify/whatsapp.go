package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNoPhone signals that the patient cannot be contacted. Callers render
// it as an explanatory message; it never aborts the surrounding flow.
var ErrNoPhone = errors.New("notify: patient has no phone number")

const dateLayout = "02/01/2006"

// FollowUpMessage builds the outreach text for a patient, most urgent
// signal first: an overdue reminder with the exact day count, else an
// upcoming-appointment reminder, else a generic greeting.
func FollowUpMessage(name string, daysOverdue *int, nextAppointment *time.Time) string {
	if name == "" {
		name = "Paciente"
	}

	if daysOverdue != nil && *daysOverdue > 0 {
		return fmt.Sprintf(
			"Olá %s, notamos que sua consulta está atrasada em %d dias. Por favor, entre em contato para regularizarmos.",
			name, *daysOverdue,
		)
	}
	if nextAppointment != nil {
		return fmt.Sprintf(
			"Olá %s, lembrete de sua consulta agendada para %s.",
			name, nextAppointment.Format(dateLayout),
		)
	}
	return fmt.Sprintf("Olá %s, sou da equipe de saúde.", name)
}

// WhatsAppLink builds the wa.me deep link that hands the message to the
// external channel. Delivery itself is not this service's concern.
//
// The stored phone may be formatted ("(11) 98765-4321"); only its digits
// go into the link, prefixed with the configured country code.
func WhatsAppLink(countryCode, phone, message string) (string, error) {
	digits := digitsOnly(phone)
	if digits == "" {
		return "", ErrNoPhone
	}
	return fmt.Sprintf("https://wa.me/%s%s?text=%s", countryCode, digits, url.QueryEscape(message)), nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
