package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const certificateNumberPrefix = "MNA"
const certificateSuffixLength = 5
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
var seededRandMu sync.Mutex

// GenerateCertificateNumber returns a candidate verification code of the
// form MNA-YYYYMMDD-XXXXX. The date is the UTC generation instant. The
// result is a candidate only; uniqueness is the caller's responsibility.
func GenerateCertificateNumber() string {
	b := make([]byte, certificateSuffixLength)
	seededRandMu.Lock()
	for i := range b {
		b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
	}
	seededRandMu.Unlock()

	return fmt.Sprintf("%s-%s-%s", certificateNumberPrefix, time.Now().UTC().Format("20060102"), string(b))
}

// GenerateLocalID returns an identifier for a certificate record created
// while the remote store was unreachable. The prefix keeps fallback IDs
// distinguishable from remote-assigned ones.
func GenerateLocalID() string {
	return "local-" + uuid.New().String()
}
