// Package services contains application services for the gistkeeper client.
// This file defines the knowledge service: the only code path that mutates
// local records, so every change lands in the change ledger.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/ledger"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
	"github.com/google/uuid"
)

// KnowledgeService defines the record operations offered to the CLI.
//
// Contract:
//   - Add*: assign an id when empty, stamp timestamps, store, record a create.
//   - Update: the record must exist; stamps UpdatedAt and records an update.
//   - Delete: the record must exist; records a delete.
//   - Get/List: read-only.
//
// Each mutation writes the record and its ledger entry in one transaction.
type KnowledgeService interface {
	AddResource(ctx context.Context, r models.Resource) (models.Resource, error)
	AddQuestion(ctx context.Context, q models.Question) (models.Question, error)
	AddSubQuestion(ctx context.Context, s models.SubQuestion) (models.SubQuestion, error)
	AddAnswer(ctx context.Context, a models.Answer) (models.Answer, error)
	Update(ctx context.Context, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id string) error
	Get(ctx context.Context, kind models.Kind, id string) (models.Record, error)
	List(ctx context.Context, kind models.Kind) ([]models.Record, error)
}

type knowledgeService struct {
	db     *sql.DB
	ledger *ledger.Ledger
	now    func() time.Time
	newID  func() string
}

// Option configures the knowledge service.
type Option func(*knowledgeService)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *knowledgeService) { s.now = now }
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(f func() string) Option {
	return func(s *knowledgeService) { s.newID = f }
}

// NewKnowledgeService binds the service to db and the ledger l.
func NewKnowledgeService(db *sql.DB, l *ledger.Ledger, opts ...Option) KnowledgeService {
	s := &knowledgeService{db: db, ledger: l, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *knowledgeService) AddResource(ctx context.Context, r models.Resource) (models.Resource, error) {
	if strings.TrimSpace(r.Title) == "" {
		return r, fmt.Errorf("%w: resource needs a title", common.ErrInvalidRecord)
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	rec, err := s.create(ctx, r)
	if err != nil {
		return r, err
	}
	return rec.(models.Resource), nil
}

func (s *knowledgeService) AddQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	if strings.TrimSpace(q.Title) == "" {
		return q, fmt.Errorf("%w: question needs a title", common.ErrInvalidRecord)
	}
	if q.ResourceID != "" {
		if err := s.mustExist(ctx, models.KindResources, q.ResourceID); err != nil {
			return q, err
		}
	}
	if q.ID == "" {
		q.ID = s.newID()
	}
	rec, err := s.create(ctx, q)
	if err != nil {
		return q, err
	}
	return rec.(models.Question), nil
}

func (s *knowledgeService) AddSubQuestion(ctx context.Context, sq models.SubQuestion) (models.SubQuestion, error) {
	if sq.QuestionID == "" {
		return sq, fmt.Errorf("%w: sub-question needs a question", common.ErrInvalidRecord)
	}
	if err := s.mustExist(ctx, models.KindQuestions, sq.QuestionID); err != nil {
		return sq, err
	}
	if sq.ID == "" {
		sq.ID = s.newID()
	}
	rec, err := s.create(ctx, sq)
	if err != nil {
		return sq, err
	}
	return rec.(models.SubQuestion), nil
}

// AddAnswer attaches to a sub-question when SubQuestionID is set, otherwise
// to the question.
func (s *knowledgeService) AddAnswer(ctx context.Context, a models.Answer) (models.Answer, error) {
	switch {
	case a.SubQuestionID != "":
		if err := s.mustExist(ctx, models.KindSubQuestions, a.SubQuestionID); err != nil {
			return a, err
		}
	case a.QuestionID != "":
		if err := s.mustExist(ctx, models.KindQuestions, a.QuestionID); err != nil {
			return a, err
		}
	default:
		return a, fmt.Errorf("%w: answer needs a question or sub-question", common.ErrInvalidRecord)
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	rec, err := s.create(ctx, a)
	if err != nil {
		return a, err
	}
	return rec.(models.Answer), nil
}

func (s *knowledgeService) create(ctx context.Context, rec models.Record) (models.Record, error) {
	return s.write(ctx, models.OpCreate, models.Stamp(rec, s.now().UTC()))
}

// Update replaces an existing record. A zero CreatedAt is carried over from
// the stored copy.
func (s *knowledgeService) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	kind, err := models.KindOf(rec)
	if err != nil {
		return nil, err
	}
	if rec.RecordID() == "" {
		return nil, fmt.Errorf("%w: %s record without id", common.ErrInvalidRecord, kind)
	}

	prev, err := s.Get(ctx, kind, rec.RecordID())
	if err != nil {
		return nil, err
	}
	return s.write(ctx, models.OpUpdate, models.Stamp(keepCreatedAt(rec, prev), s.now().UTC()))
}

func (s *knowledgeService) write(ctx context.Context, op models.Operation, rec models.Record) (models.Record, error) {
	kind, err := models.KindOf(rec)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).Upsert(ctx, rec); err != nil {
			return err
		}
		_, err := s.ledger.WithTx(tx).Record(ctx, op, kind, rec.RecordID(), rec)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", op, kind, rec.RecordID(), err)
	}
	return rec, nil
}

func (s *knowledgeService) Delete(ctx context.Context, kind models.Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).Delete(ctx, kind, id); err != nil {
			return err
		}
		_, err := s.ledger.WithTx(tx).Record(ctx, models.OpDelete, kind, id, nil)
		return err
	})
}

func (s *knowledgeService) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	return records.NewSQLiteRepository(s.db).Get(ctx, kind, id)
}

func (s *knowledgeService) List(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	return records.NewSQLiteRepository(s.db).ReadAll(ctx, kind)
}

func (s *knowledgeService) mustExist(ctx context.Context, kind models.Kind, id string) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	return nil
}

func keepCreatedAt(rec, prev models.Record) models.Record {
	switch v := rec.(type) {
	case models.Resource:
		if v.CreatedAt == nil {
			v.CreatedAt = prev.(models.Resource).CreatedAt
		}
		return v
	case models.Question:
		if v.CreatedAt == nil {
			v.CreatedAt = prev.(models.Question).CreatedAt
		}
		return v
	case models.SubQuestion:
		if v.CreatedAt == nil {
			v.CreatedAt = prev.(models.SubQuestion).CreatedAt
		}
		return v
	case models.Answer:
		if v.CreatedAt == nil {
			v.CreatedAt = prev.(models.Answer).CreatedAt
		}
		return v
	}
	return rec
}
