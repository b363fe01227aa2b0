package audit

import (
	"context"
	"fmt"

	"gestionexus-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FailureCounter is satisfied by telemetry.Metrics.
type FailureCounter interface {
	AuditFailure()
}

// Recorder appends user-attributed actions to the audit log.
// Failures are logged and dropped; they never reach the caller.
type Recorder struct {
	db       *gorm.DB
	log      logrus.FieldLogger
	failures FailureCounter
}

func NewRecorder(db *gorm.DB, log logrus.FieldLogger, failures FailureCounter) *Recorder {
	return &Recorder{db: db, log: log, failures: failures}
}

// Record writes one entry after the business operation has committed.
func (r *Recorder) Record(ctx context.Context, userID uint, action string) {
	if r == nil {
		return
	}
	if userID == 0 {
		r.fail(action, fmt.Errorf("missing user id"))
		return
	}

	entry := models.AuditLog{UserID: userID, Action: action}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.fail(action, err)
	}
}

// Recordf is Record with a formatted action.
func (r *Recorder) Recordf(ctx context.Context, userID uint, format string, args ...any) {
	r.Record(ctx, userID, fmt.Sprintf(format, args...))
}

func (r *Recorder) fail(action string, err error) {
	r.log.WithError(err).WithField("action", action).Warn("audit log entry dropped")
	if r.failures != nil {
		r.failures.AuditFailure()
	}
}
