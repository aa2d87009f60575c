package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnacademy/academy/models"
)

// Remote is the adapter over the platform's hosted Postgres database, the
// store of record for certificates. It classifies GORM errors into the
// ErrNotFound / ErrRemoteUnavailable taxonomy so callers can tell an
// expected miss from a transport failure.
type Remote struct {
	db *gorm.DB
}

func NewRemote(db *gorm.DB) *Remote {
	return &Remote{db: db}
}

// Insert writes a new certificate record. When the record carries no ID the
// store assigns one; a fallback record being reconciled keeps its local ID.
// The composite unique index on (learner_id, course_id) turns a
// cross-device double-issue race into a rejected insert.
func (r *Remote) Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	record := *cert
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.Source = ""

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("certificate insert rejected: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	record.Source = models.SourceRemote
	return &record, nil
}

// FindByCode looks up a single record by its exact certificate number.
// Callers normalize the code before calling; no fuzzy matching here.
func (r *Remote) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.WithContext(ctx).Where("certificate_number = ?", code).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	cert.Source = models.SourceRemote
	return &cert, nil
}

// ListByLearner returns every certificate the remote store holds for a
// learner. An empty result is not an error.
func (r *Remote) ListByLearner(ctx context.Context, learnerID string) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	for i := range certs {
		certs[i].Source = models.SourceRemote
	}
	return certs, nil
}
