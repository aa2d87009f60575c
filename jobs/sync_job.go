package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mnacademy/academy/models"
	"github.com/mnacademy/academy/services"
	"github.com/mnacademy/academy/store"
)

const syncTimeout = 30 * time.Second

// CertificateSync pushes certificates that were issued while the remote
// store was unreachable back into the store of record. Records keep their
// local ID and certificate number, so a reconciled certificate stays the
// same credential.
type CertificateSync struct {
	remote services.RemoteCertificateStore
	local  *store.Local
}

func NewCertificateSync(remote services.RemoteCertificateStore, local *store.Local) *CertificateSync {
	return &CertificateSync{remote: remote, local: local}
}

func (j *CertificateSync) Run() {
	log.Println("Running job: SyncFallbackCertificates...")

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	pending, err := j.local.ListFallback(ctx)
	if err != nil {
		log.Printf("🔥 Failed to list fallback certificates: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	for _, cert := range pending {
		synced, err := j.remote.Insert(ctx, &cert)
		if err != nil {
			if errors.Is(err, store.ErrRemoteUnavailable) {
				log.Printf("Remote store still unreachable, will retry sync later: %v", err)
				return
			}
			// Insert rejected: another device may have reconciled this
			// record already. Confirm before marking it synced.
			if _, lookupErr := j.remote.FindByCode(ctx, cert.CertificateNumber); lookupErr != nil {
				log.Printf("🔥 Failed to sync certificate %s: %v", cert.CertificateNumber, err)
				continue
			}
			synced = &cert
			synced.Source = models.SourceRemote
		}

		if err := j.local.Append(ctx, cert.LearnerID, *synced); err != nil {
			log.Printf("🔥 Failed to mark certificate %s as synced: %v", cert.CertificateNumber, err)
			continue
		}
		log.Printf("✅ Synced fallback certificate %s for learner %s", cert.CertificateNumber, cert.LearnerID)
	}
}
