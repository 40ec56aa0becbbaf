package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxDisplayNameLength = 24

const displayNameRule = "displayName must be 1-24 letters, digits or simple punctuation"

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
			_, err := validateDisplayName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
			return isJoinCode(normalizeCode(fl.Field().String()))
		})
	})
}

func validateDisplayName(name string) (string, error) {
	return validateText("display name", name, maxDisplayNameLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", errors.New(label + " contains unsupported characters")
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// isSafeText allows letters and digits in any script plus a small set of
// punctuation. Control characters and markup are rejected.
func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.', ',', '!', '?', ':', '&', '(', ')':
			continue
		default:
			return false
		}
	}
	return true
}
