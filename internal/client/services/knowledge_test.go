package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/ledger"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db  *sql.DB
	led *ledger.Ledger
	svc KnowledgeService
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{db: db, led: ledger.New(db), now: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}
	n := 0
	f.svc = NewKnowledgeService(db, f.led,
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
	)
	return f
}

func (f *fixture) pending(t *testing.T) []*models.PendingChange {
	t.Helper()
	list, err := f.led.List(context.Background())
	require.NoError(t, err)
	return list
}

func TestAdd_StampsStoresAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.AddResource(ctx, models.Resource{Title: "Go memory model"})
	require.NoError(t, err)
	assert.Equal(t, "id1", r.ID)
	require.NotNil(t, r.UpdatedAt)
	assert.Equal(t, f.now, *r.UpdatedAt)
	assert.Equal(t, f.now, *r.CreatedAt)

	q, err := f.svc.AddQuestion(ctx, models.Question{ResourceID: r.ID, Title: "What is happens-before?"})
	require.NoError(t, err)
	sq, err := f.svc.AddSubQuestion(ctx, models.SubQuestion{QuestionID: q.ID, Content: "for channels?"})
	require.NoError(t, err)
	_, err = f.svc.AddAnswer(ctx, models.Answer{SubQuestionID: sq.ID, Content: "send happens before receive"})
	require.NoError(t, err)

	pending := f.pending(t)
	require.Len(t, pending, 4)
	for _, c := range pending {
		assert.Equal(t, models.OpCreate, c.Operation)
	}
	assert.Equal(t, models.KindAnswers, pending[3].Kind)

	got, err := f.svc.Get(ctx, models.KindQuestions, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is happens-before?", got.(models.Question).Title)
}

func TestAdd_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddResource(ctx, models.Resource{Title: "  "})
	require.ErrorIs(t, err, common.ErrInvalidRecord)

	_, err = f.svc.AddQuestion(ctx, models.Question{Title: "orphan", ResourceID: "missing"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.AddSubQuestion(ctx, models.SubQuestion{Content: "x"})
	require.ErrorIs(t, err, common.ErrInvalidRecord)

	_, err = f.svc.AddAnswer(ctx, models.Answer{Content: "x"})
	require.ErrorIs(t, err, common.ErrInvalidRecord)

	_, err = f.svc.AddAnswer(ctx, models.Answer{QuestionID: "nope", Content: "x"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	assert.Empty(t, f.pending(t), "rejected mutations leave no ledger entry")
}

func TestUpdate_KeepsCreatedAtAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.AddQuestion(ctx, models.Question{Title: "v1"})
	require.NoError(t, err)
	created := f.now

	f.now = f.now.Add(time.Hour)
	upd, err := f.svc.Update(ctx, models.Question{ID: q.ID, Title: "v2"})
	require.NoError(t, err)

	got := upd.(models.Question)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, created, *got.CreatedAt)
	assert.Equal(t, f.now, *got.UpdatedAt)

	pending := f.pending(t)
	require.Len(t, pending, 2)
	assert.Equal(t, models.OpUpdate, pending[1].Operation)
}

func TestUpdate_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), models.Answer{ID: "ghost", Content: "x"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.Update(context.Background(), models.Answer{Content: "x"})
	require.ErrorIs(t, err, common.ErrInvalidRecord)
	assert.Empty(t, f.pending(t))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.AddResource(ctx, models.Resource{Title: "tmp"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, models.KindResources, r.ID))

	_, err = f.svc.Get(ctx, models.KindResources, r.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	err = f.svc.Delete(ctx, models.KindResources, r.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	err = f.svc.Delete(ctx, "notes", "x")
	require.ErrorIs(t, err, common.ErrInvalidKind)

	pending := f.pending(t)
	require.Len(t, pending, 2)
	assert.Equal(t, models.OpDelete, pending[1].Operation)
	assert.Nil(t, pending[1].Payload)
}

func TestLedgerReplayReproducesStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.AddResource(ctx, models.Resource{Title: "Effective Go"})
	require.NoError(t, err)
	q, err := f.svc.AddQuestion(ctx, models.Question{ResourceID: r.ID, Title: "Receivers?"})
	require.NoError(t, err)
	a, err := f.svc.AddAnswer(ctx, models.Answer{QuestionID: q.ID, Content: "pointer if mutating"})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Update(ctx, models.Answer{ID: a.ID, QuestionID: q.ID, Content: "pointer if mutating or large"})
	require.NoError(t, err)
	tmp, err := f.svc.AddQuestion(ctx, models.Question{Title: "scratch"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, models.KindQuestions, tmp.ID))

	replayed, err := ledger.Replay(nil, f.pending(t))
	require.NoError(t, err)
	stored, err := records.NewSQLiteRepository(f.db).LoadDataset(ctx)
	require.NoError(t, err)

	for _, k := range models.AllKinds {
		require.Equal(t, stored.Count(k), replayed.Count(k), k)
		for _, rec := range stored.Records(k) {
			other, ok := replayed.Find(k, rec.RecordID())
			require.True(t, ok)
			ts1, _ := rec.LastModified()
			ts2, _ := other.LastModified()
			assert.True(t, ts1.Equal(ts2))
		}
	}
	got, _ := replayed.Find(models.KindAnswers, a.ID)
	assert.Equal(t, "pointer if mutating or large", got.(models.Answer).Content)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, title := range []string{"b", "a", "c"} {
		_, err := f.svc.AddResource(ctx, models.Resource{Title: title})
		require.NoError(t, err)
	}
	list, err := f.svc.List(ctx, models.KindResources)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].(models.Resource).Title)

	_, err = f.svc.List(ctx, "notes")
	require.ErrorIs(t, err, common.ErrInvalidKind)
}

func TestWrite_RollsBackOnLedgerFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.Exec(`DROP TABLE pending_changes`)
	require.NoError(t, err)

	_, err = f.svc.AddResource(ctx, models.Resource{Title: "lost"})
	require.Error(t, err)

	list, err := f.svc.List(ctx, models.KindResources)
	require.NoError(t, err)
	assert.Empty(t, list, "record write rolled back with the ledger append")
}
