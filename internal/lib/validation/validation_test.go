package validation_test

import (
	"testing"

	"curve_service/internal/lib/validation"

	"github.com/stretchr/testify/assert"
)

func TestPasswordRule(t *testing.T) {
	validate := validation.New()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"upper lower digit", "Passw0rd", true},
		{"with punctuation", "Passw0rd!", true},
		{"no upper", "passw0rd", false},
		{"no lower", "PASSW0RD", false},
		{"no digit", "Password", false},
		{"empty", "", false},
		{"digits only", "12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Var(tt.password, "password")
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
