package audit

import (
	"context"
	"errors"
	"testing"

	"gestionexus-backend/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFailures struct{ n int }

func (c *countingFailures) AuditFailure() { c.n++ }

func TestRecordInsertsEntry(t *testing.T) {
	db, mock := testutil.MockDB(t)
	log, hook := test.NewNullLogger()
	failures := &countingFailures{}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	NewRecorder(db, log, failures).Record(context.Background(), 7, "Created product Camisa")

	assert.Empty(t, hook.AllEntries())
	assert.Zero(t, failures.n)
}

func TestRecordSwallowsDatabaseFailure(t *testing.T) {
	db, mock := testutil.MockDB(t)
	log, hook := test.NewNullLogger()
	failures := &countingFailures{}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assert.NotPanics(t, func() {
		NewRecorder(db, log, failures).Recordf(context.Background(), 7, "Deleted supplier %d", 3)
	})

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Deleted supplier 3", entry.Data["action"])
	assert.Equal(t, 1, failures.n)
}

func TestRecordWithoutUserIsDropped(t *testing.T) {
	db, _ := testutil.MockDB(t)
	log, hook := test.NewNullLogger()

	NewRecorder(db, log, nil).Record(context.Background(), 0, "anonymous")

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "audit log entry dropped", hook.LastEntry().Message)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Record(context.Background(), 1, "noop") })
}
