package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	number := GenerateOrderNumber(now)
	assert.Regexp(t, `^ORD-20260901-[0-9A-F]{8}$`, number)

	// Two numbers generated for the same instant must differ
	assert.NotEqual(t, number, GenerateOrderNumber(now))
}
