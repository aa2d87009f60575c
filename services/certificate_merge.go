package services

import (
	"sort"
	"strings"

	"github.com/mnacademy/academy/models"
)

// MergeCertificates deduplicates records from the two stores by
// certificate number and orders them by issue date, newest first, ties
// broken by ID. A local record wins over a remote one with the same
// number: a local record only exists for numbers the remote store did not
// accept or could not confirm. Pure function; both the certificate list
// and the "already issued for this course" check are built on it.
func MergeCertificates(remote, local []models.Certificate) []models.Certificate {
	byNumber := make(map[string]models.Certificate, len(remote)+len(local))
	for _, cert := range remote {
		byNumber[strings.ToUpper(cert.CertificateNumber)] = cert
	}
	for _, cert := range local {
		byNumber[strings.ToUpper(cert.CertificateNumber)] = cert
	}

	merged := make([]models.Certificate, 0, len(byNumber))
	for _, cert := range byNumber {
		merged = append(merged, cert)
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].IssuedAt.Equal(merged[j].IssuedAt) {
			return merged[i].IssuedAt.After(merged[j].IssuedAt)
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}
