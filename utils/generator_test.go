package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var certificateNumberPattern = regexp.MustCompile(`^MNA-\d{8}-[A-Z0-9]{5}$`)

func TestGenerateCertificateNumber_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateCertificateNumber()
		require.Regexp(t, certificateNumberPattern, code)
	}
}

func TestGenerateCertificateNumber_UsesUTCDate(t *testing.T) {
	code := GenerateCertificateNumber()
	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, time.Now().UTC().Format("20060102"), parts[1])
}

func TestGenerateCertificateNumber_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[GenerateCertificateNumber()] = true
	}
	assert.Greater(t, len(seen), 1, "repeated draws should not all collide")
}

func TestGenerateLocalID(t *testing.T) {
	id := GenerateLocalID()
	assert.True(t, strings.HasPrefix(id, "local-"))
	assert.NotEqual(t, id, GenerateLocalID())
}
