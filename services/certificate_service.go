package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mnacademy/academy/models"
	"github.com/mnacademy/academy/store"
	"github.com/mnacademy/academy/utils"
)

const uniqueCodeAttempts = 6
const remoteTimeout = 10 * time.Second

// RemoteCertificateStore is the authoritative, networked store of record.
type RemoteCertificateStore interface {
	Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	FindByCode(ctx context.Context, code string) (*models.Certificate, error)
	ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error)
}

// LocalCertificateStore is the durable per-device fallback cache.
type LocalCertificateStore interface {
	ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error)
	Append(ctx context.Context, learnerID string, cert models.Certificate) error
	FindByCode(ctx context.Context, code string) (*models.Certificate, error)
}

// CertificateService orchestrates issuance and verification across the
// remote store of record and the local fallback cache. Stores are injected
// so the service carries no ambient state.
type CertificateService struct {
	remote RemoteCertificateStore
	local  LocalCertificateStore
	now    func() time.Time

	// OnIssued, when set, is called once for each newly created
	// certificate. It is not called when an existing record is returned.
	OnIssued func(cert models.Certificate)
}

func NewCertificateService(remote RemoteCertificateStore, local LocalCertificateStore) *CertificateService {
	return &CertificateService{
		remote: remote,
		local:  local,
		now:    time.Now,
	}
}

// EnsureCertificate returns the learner's certificate for the course,
// creating it exactly once. Calling it again for the same pair returns the
// same record and performs no writes. When the remote insert fails the
// record is persisted locally with a locally generated ID; the call fails
// only when both stores reject the write.
func (s *CertificateService) EnsureCertificate(ctx context.Context, learnerID, learnerName string, course models.Course) (*models.Certificate, error) {
	existing, err := s.ListCertificates(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].CourseID == course.ID {
			return &existing[i], nil
		}
	}

	cert := models.Certificate{
		LearnerID:          learnerID,
		CourseID:           course.ID,
		CourseSlug:         course.Slug,
		CourseTitle:        course.Title,
		LearnerDisplayName: learnerName,
		CertificateNumber:  s.uniqueCertificateNumber(ctx),
		IssuedAt:           s.now().UTC(),
		Metadata: models.CertificateMetadata{
			Level:            course.Level,
			Duration:         course.Duration,
			TotalLessonCount: course.TotalLessonCount,
		},
	}

	rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	created, err := s.remote.Insert(rctx, &cert)
	cancel()
	if err == nil {
		// Convenience copy so verification and downloads keep working
		// offline; losing it is not fatal.
		if lerr := s.local.Append(ctx, learnerID, *created); lerr != nil {
			log.Printf("🔥 Failed to cache certificate %s locally: %v", created.CertificateNumber, lerr)
		}
		s.notifyIssued(*created)
		return created, nil
	}

	log.Printf("🔥 Remote certificate insert failed, falling back to local store: %v", err)

	cert.ID = utils.GenerateLocalID()
	cert.Source = models.SourceLocalFallback
	if lerr := s.local.Append(ctx, learnerID, cert); lerr != nil {
		return nil, fmt.Errorf("certificate could not be persisted remotely (%v) or locally: %w", err, lerr)
	}
	s.notifyIssued(cert)
	return &cert, nil
}

// ListCertificates returns the merged, deduplicated certificate list for a
// learner. A remote failure degrades to the local cache; only a failure of
// both sources is an error.
func (s *CertificateService) ListCertificates(ctx context.Context, learnerID string) ([]models.Certificate, error) {
	rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	remote, remoteErr := s.remote.ListByLearner(rctx, learnerID)
	cancel()
	if remoteErr != nil {
		log.Printf("🔥 Remote certificate list failed for learner %s: %v", learnerID, remoteErr)
	}

	local, localErr := s.local.ListByLearner(ctx, learnerID)
	if localErr != nil {
		if remoteErr != nil {
			return nil, fmt.Errorf("certificate list unavailable: remote (%v), local (%w)", remoteErr, localErr)
		}
		log.Printf("🔥 Local certificate list failed for learner %s: %v", learnerID, localErr)
	}

	return MergeCertificates(remote, local), nil
}

// VerifyCertificate resolves a bare, possibly user-typed code to its
// certificate record. The remote store is consulted first and its record
// wins even when the local cache holds one under the same number; the
// local scan runs on a remote miss or a remote transport failure. A miss
// in both stores is ErrNotFound, never a transport error.
func (s *CertificateService) VerifyCertificate(ctx context.Context, code string) (*models.Certificate, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, store.ErrNotFound
	}

	rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	cert, err := s.remote.FindByCode(rctx, normalized)
	cancel()
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("🔥 Remote verification lookup failed for %s, checking local store: %v", normalized, err)
	}

	cert, err = s.local.FindByCode(ctx, normalized)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("🔥 Local verification lookup failed for %s: %v", normalized, err)
		}
		return nil, store.ErrNotFound
	}
	return cert, nil
}

// uniqueCertificateNumber generates a candidate and confirms against the
// remote store that no certificate already carries it, retrying within a
// fixed budget. When the check cannot run or the budget is exhausted it
// proceeds best-effort: the date plus five base-36 characters make a real
// collision astronomically unlikely, and blocking issuance would leave the
// learner with no credential at all.
func (s *CertificateService) uniqueCertificateNumber(ctx context.Context) string {
	for attempt := 0; attempt < uniqueCodeAttempts; attempt++ {
		candidate := utils.GenerateCertificateNumber()

		rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
		_, err := s.remote.FindByCode(rctx, candidate)
		cancel()

		if errors.Is(err, store.ErrNotFound) {
			return candidate
		}
		if err != nil {
			log.Printf("🔥 Certificate number uniqueness check failed, proceeding best-effort: %v", err)
			return candidate
		}
		// Candidate already taken, draw again.
	}

	log.Printf("⚠️ Unique certificate number budget exhausted, proceeding best-effort")
	return utils.GenerateCertificateNumber()
}

func (s *CertificateService) notifyIssued(cert models.Certificate) {
	if s.OnIssued != nil {
		s.OnIssued(cert)
	}
}
