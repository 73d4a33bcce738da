package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "пробелы", input: "8 926 123 45 67", want: "+7(926)123-45-67"},
		{name: "уже в формате", input: "+7(926)123-45-67", want: "+7(926)123-45-67"},
		{name: "дефисы и скобки", input: "8 (926) 123-45-67", want: "+7(926)123-45-67"},
		{name: "десять цифр без кода", input: "9261234567", want: "+7(926)123-45-67"},
		{name: "лишние цифры отбрасываются слева", input: "001239261234567", want: "+7(926)123-45-67"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatPhoneNumber(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// Повторная нормализация ничего не меняет.
			again, err := FormatPhoneNumber(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestFormatPhoneNumberTooShort(t *testing.T) {
	for _, input := range []string{"", "12345", "926 123", "телефон"} {
		_, err := FormatPhoneNumber(input)
		assert.ErrorIs(t, err, ErrInvalidPhone, "input: %q", input)
	}
}
