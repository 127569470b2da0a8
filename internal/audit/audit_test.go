package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

type captureWriter struct {
	logs []models.AuditLog
}

func (w *captureWriter) Write(_ context.Context, log models.AuditLog) error {
	w.logs = append(w.logs, log)
	return nil
}

func TestRecorderInsertedHasNilOldRow(t *testing.T) {
	w := &captureWriter{}
	r := New(w, "load-1")

	err := r.Inserted(context.Background(), "silver_node", 42, map[string]interface{}{"value": "RN"})
	require.NoError(t, err)
	require.Len(t, w.logs, 1)
	require.Equal(t, models.AuditInsert, w.logs[0].Operation)
	require.Nil(t, w.logs[0].OldRow)
	require.Equal(t, "load-1", w.logs[0].Actor)
}

func TestRecorderUpdatedHasBothSnapshots(t *testing.T) {
	w := &captureWriter{}
	r := New(w, "load-1")

	err := r.Updated(context.Background(), "silver_node", 42,
		map[string]interface{}{"status": "active"},
		map[string]interface{}{"status": "inactive"})
	require.NoError(t, err)
	require.Equal(t, models.AuditUpdate, w.logs[0].Operation)
	require.NotNil(t, w.logs[0].OldRow)
	require.NotNil(t, w.logs[0].NewRow)
}

func TestRecorderDeletedHasNilNewRow(t *testing.T) {
	w := &captureWriter{}
	r := New(w, "load-1")

	err := r.Deleted(context.Background(), "silver_node", 42, map[string]interface{}{"value": "RN"})
	require.NoError(t, err)
	require.Equal(t, models.AuditDelete, w.logs[0].Operation)
	require.Nil(t, w.logs[0].NewRow)
}

func TestWithActorDoesNotMutateOriginal(t *testing.T) {
	w := &captureWriter{}
	r := New(w, "load-1")
	reviewer := r.WithActor("human:alice")

	require.NoError(t, reviewer.Inserted(context.Background(), "mapping", 1, nil))
	require.NoError(t, r.Inserted(context.Background(), "mapping", 2, nil))

	require.Equal(t, "human:alice", w.logs[0].Actor)
	require.Equal(t, "load-1", w.logs[1].Actor)
}
