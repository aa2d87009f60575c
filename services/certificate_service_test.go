package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnacademy/academy/models"
	"github.com/mnacademy/academy/store"
)

// fakeRemote is an in-memory stand-in for the Postgres adapter with
// switchable failure modes.
type fakeRemote struct {
	mu         sync.Mutex
	byNumber   map[string]models.Certificate
	failInsert bool
	failLookup bool
	inserts    int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{byNumber: make(map[string]models.Certificate)}
}

func (f *fakeRemote) Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return nil, fmt.Errorf("%w: connection refused", store.ErrRemoteUnavailable)
	}
	record := *cert
	if record.ID == "" {
		record.ID = fmt.Sprintf("remote-%d", len(f.byNumber)+1)
	}
	if _, exists := f.byNumber[record.CertificateNumber]; exists {
		return nil, errors.New("certificate insert rejected: duplicate key")
	}
	record.Source = models.SourceRemote
	f.byNumber[record.CertificateNumber] = record
	f.inserts++
	return &record, nil
}

func (f *fakeRemote) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookup {
		return nil, fmt.Errorf("%w: connection refused", store.ErrRemoteUnavailable)
	}
	if cert, ok := f.byNumber[code]; ok {
		cert.Source = models.SourceRemote
		return &cert, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRemote) ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookup {
		return nil, fmt.Errorf("%w: connection refused", store.ErrRemoteUnavailable)
	}
	var certs []models.Certificate
	for _, cert := range f.byNumber {
		if cert.LearnerID == learnerID {
			cert.Source = models.SourceRemote
			certs = append(certs, cert)
		}
	}
	return certs, nil
}

// fakeLocal mirrors the SQLite fallback store's contract in memory.
type fakeLocal struct {
	mu         sync.Mutex
	byLearner  map[string][]models.Certificate
	failAppend bool
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{byLearner: make(map[string][]models.Certificate)}
}

func (f *fakeLocal) ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Certificate(nil), f.byLearner[learnerID]...), nil
}

func (f *fakeLocal) Append(ctx context.Context, learnerID string, cert models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errors.New("disk full")
	}
	records := f.byLearner[learnerID]
	for i := range records {
		if strings.EqualFold(records[i].CertificateNumber, cert.CertificateNumber) {
			records[i] = cert
			f.byLearner[learnerID] = records
			return nil
		}
	}
	f.byLearner[learnerID] = append(records, cert)
	return nil
}

func (f *fakeLocal) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, records := range f.byLearner {
		for i := range records {
			if strings.EqualFold(records[i].CertificateNumber, code) {
				cert := records[i]
				return &cert, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func testCourse() models.Course {
	return models.Course{
		ID:               "network-foundations",
		Slug:             "network-foundations",
		Title:            "Network Foundations",
		Level:            "Beginner",
		Duration:         "4 weeks",
		TotalLessonCount: 4,
	}
}

func TestEnsureCertificate_IssuesOnce(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	first, err := svc.EnsureCertificate(ctx, "u1", "Amina Odhiambo", testCourse())
	require.NoError(t, err)
	require.NotNil(t, first)

	assert.Regexp(t, regexp.MustCompile(`^MNA-\d{8}-[A-Z0-9]{5}$`), first.CertificateNumber)
	assert.Equal(t, "u1", first.LearnerID)
	assert.Equal(t, "network-foundations", first.CourseID)
	assert.Equal(t, "Amina Odhiambo", first.LearnerDisplayName)
	assert.Equal(t, 4, first.Metadata.TotalLessonCount)
	assert.Equal(t, models.SourceRemote, first.Source)

	second, err := svc.EnsureCertificate(ctx, "u1", "Amina Odhiambo", testCourse())
	require.NoError(t, err)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, remote.inserts, "second call must not write")
}

func TestEnsureCertificate_SnapshotsMetadata(t *testing.T) {
	remote := newFakeRemote()
	svc := NewCertificateService(remote, newFakeLocal())

	course := testCourse()
	cert, err := svc.EnsureCertificate(context.Background(), "u1", "Amina Odhiambo", course)
	require.NoError(t, err)

	// A later catalog edit must not alter the issued record.
	course.TotalLessonCount = 99
	again, err := svc.EnsureCertificate(context.Background(), "u1", "Amina Odhiambo", course)
	require.NoError(t, err)
	assert.Equal(t, cert.Metadata.TotalLessonCount, again.Metadata.TotalLessonCount)
}

func TestEnsureCertificate_FallsBackToLocalStore(t *testing.T) {
	remote := newFakeRemote()
	remote.failInsert = true
	remote.failLookup = true
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	cert, err := svc.EnsureCertificate(ctx, "u2", "Brian Wekesa", models.Course{
		ID: "routing-essentials", Slug: "routing-essentials", Title: "Routing Essentials", TotalLessonCount: 9,
	})
	require.NoError(t, err)
	require.NotNil(t, cert)

	assert.True(t, strings.HasPrefix(cert.ID, "local-"), "fallback record must carry a locally generated ID")
	assert.Equal(t, models.SourceLocalFallback, cert.Source)

	// The fallback record must be verifiable afterwards.
	found, err := svc.VerifyCertificate(ctx, cert.CertificateNumber)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
}

func TestEnsureCertificate_FallbackIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	remote.failInsert = true
	remote.failLookup = true
	svc := NewCertificateService(remote, newFakeLocal())
	ctx := context.Background()

	first, err := svc.EnsureCertificate(ctx, "u2", "Brian Wekesa", testCourse())
	require.NoError(t, err)
	second, err := svc.EnsureCertificate(ctx, "u2", "Brian Wekesa", testCourse())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
}

func TestEnsureCertificate_BothStoresFail(t *testing.T) {
	remote := newFakeRemote()
	remote.failInsert = true
	remote.failLookup = true
	local := newFakeLocal()
	local.failAppend = true
	svc := NewCertificateService(remote, local)

	cert, err := svc.EnsureCertificate(context.Background(), "u3", "Carol Njeri", testCourse())
	require.Error(t, err)
	assert.Nil(t, cert, "no partial record may be returned")
}

func TestEnsureCertificate_IssuesEvenWithMalformedMetadata(t *testing.T) {
	svc := NewCertificateService(newFakeRemote(), newFakeLocal())

	cert, err := svc.EnsureCertificate(context.Background(), "u1", "Amina Odhiambo", models.Course{
		ID: "broken-course", Slug: "broken-course", Title: "Broken Course", TotalLessonCount: 0,
	})
	require.NoError(t, err, "completion gating is the caller's job")
	assert.Equal(t, 0, cert.Metadata.TotalLessonCount)
}

func TestEnsureCertificate_NotifiesOnlyOnCreation(t *testing.T) {
	svc := NewCertificateService(newFakeRemote(), newFakeLocal())
	var issued []string
	svc.OnIssued = func(cert models.Certificate) {
		issued = append(issued, cert.CertificateNumber)
	}
	ctx := context.Background()

	_, err := svc.EnsureCertificate(ctx, "u1", "Amina Odhiambo", testCourse())
	require.NoError(t, err)
	_, err = svc.EnsureCertificate(ctx, "u1", "Amina Odhiambo", testCourse())
	require.NoError(t, err)

	assert.Len(t, issued, 1)
}

func TestVerifyCertificate_NormalizesInput(t *testing.T) {
	remote := newFakeRemote()
	svc := NewCertificateService(remote, newFakeLocal())
	ctx := context.Background()

	cert, err := svc.EnsureCertificate(ctx, "u1", "Amina Odhiambo", testCourse())
	require.NoError(t, err)

	typed := "  " + strings.ToLower(cert.CertificateNumber) + " "
	found, err := svc.VerifyCertificate(ctx, typed)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
}

func TestVerifyCertificate_RemoteWinsOnConflict(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	number := "MNA-20240614-AB3K9"
	remoteCert := models.Certificate{ID: "remote-1", LearnerID: "u1", CourseID: "c1", CertificateNumber: number}
	_, err := remote.Insert(ctx, &remoteCert)
	require.NoError(t, err)
	require.NoError(t, local.Append(ctx, "u1", models.Certificate{
		ID: "local-99", LearnerID: "u1", CourseID: "c1",
		CertificateNumber: number, Source: models.SourceLocalFallback,
	}))

	found, err := svc.VerifyCertificate(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "remote-1", found.ID)
	assert.Equal(t, models.SourceRemote, found.Source)
}

func TestVerifyCertificate_FallsBackWhenRemoteDown(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	require.NoError(t, local.Append(ctx, "u2", models.Certificate{
		ID: "local-1", LearnerID: "u2", CourseID: "c1",
		CertificateNumber: "MNA-20240614-ZZZZZ", Source: models.SourceLocalFallback,
	}))
	remote.failLookup = true

	found, err := svc.VerifyCertificate(ctx, "MNA-20240614-ZZZZZ")
	require.NoError(t, err, "a transport failure must not hard-fail verification")
	assert.Equal(t, "local-1", found.ID)
}

func TestVerifyCertificate_NotFound(t *testing.T) {
	svc := NewCertificateService(newFakeRemote(), newFakeLocal())

	_, err := svc.VerifyCertificate(context.Background(), "MNA-20240614-NOPEX")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.VerifyCertificate(context.Background(), "   ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListCertificates_MergesBothStores(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	remoteCert := models.Certificate{ID: "remote-1", LearnerID: "u1", CourseID: "c1", CertificateNumber: "MNA-20240614-AAAAA"}
	_, err := remote.Insert(ctx, &remoteCert)
	require.NoError(t, err)
	require.NoError(t, local.Append(ctx, "u1", models.Certificate{
		ID: "local-1", LearnerID: "u1", CourseID: "c2",
		CertificateNumber: "MNA-20240615-BBBBB", Source: models.SourceLocalFallback,
	}))

	certs, err := svc.ListCertificates(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, certs, 2)
}

func TestUniquenessLoop_RetriesTakenCodes(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	svc := NewCertificateService(remote, local)
	ctx := context.Background()

	// Pre-issue several certificates; new draws must avoid their numbers.
	for i := 0; i < 5; i++ {
		cert := models.Certificate{
			LearnerID: fmt.Sprintf("seed-%d", i), CourseID: fmt.Sprintf("seed-course-%d", i),
			CertificateNumber: fmt.Sprintf("MNA-20240101-%05d", i),
		}
		_, err := remote.Insert(ctx, &cert)
		require.NoError(t, err)
	}

	cert, err := svc.EnsureCertificate(ctx, "u9", "Diana Atieno", testCourse())
	require.NoError(t, err)

	count := 0
	for number := range remote.byNumber {
		if number == cert.CertificateNumber {
			count++
		}
	}
	assert.Equal(t, 1, count, "issued number must be unique in the store")
}
