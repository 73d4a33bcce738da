package dialog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("неверный номер телефона")

// FormatPhoneNumber приводит номер телефона к виду +7(XXX)XXX-XX-XX.
// Из ввода выбрасывается все, кроме цифр; значимыми считаются последние 10.
func FormatPhoneNumber(phone string) (string, error) {
	var sb strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}

	digits := sb.String()
	if len(digits) < 10 {
		return "", ErrInvalidPhone
	}
	digits = digits[len(digits)-10:]

	return fmt.Sprintf("+7(%s)%s-%s-%s",
		digits[:3], digits[3:6], digits[6:8], digits[8:10]), nil
}
