package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	nanoIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	digitAlphabet  = "0123456789"
)

func GenerateNanoID(length int) string {
	id, err := gonanoid.Generate(nanoIDAlphabet, length)
	if err != nil {
		panic(err)
	}
	return id
}

func GenerateNanoIDWithPrefix(prefix string, length int) string {
	return prefix + "_" + GenerateNanoID(length)
}

// GenerateDigits returns n random decimal digits; the first digit is never zero.
func GenerateDigits(n int) string {
	if n <= 0 {
		return ""
	}
	first, err := gonanoid.Generate(digitAlphabet[1:], 1)
	if err != nil {
		panic(err)
	}
	if n == 1 {
		return first
	}
	rest, err := gonanoid.Generate(digitAlphabet, n-1)
	if err != nil {
		panic(err)
	}
	return first + rest
}

func GenerateSessionKey() string {
	return uuid.NewString()
}
