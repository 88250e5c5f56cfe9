// Package models defines the client-side knowledge-base records, the dataset
// that groups them, and the derived structures used during synchronization.
package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Kind names one of the four record collections.
type Kind string

const (
	KindResources    Kind = "resources"
	KindQuestions    Kind = "questions"
	KindSubQuestions Kind = "subQuestions"
	KindAnswers      Kind = "answers"
)

// AllKinds lists every collection in a fixed order.
var AllKinds = []Kind{KindResources, KindQuestions, KindSubQuestions, KindAnswers}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	return slices.Contains(AllKinds, k)
}

// ParseKind accepts the canonical names plus a few CLI-friendly aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "resources", "resource", "r":
		return KindResources, nil
	case "questions", "question", "q":
		return KindQuestions, nil
	case "subQuestions", "subquestions", "subquestion", "sq":
		return KindSubQuestions, nil
	case "answers", "answer", "a":
		return KindAnswers, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidKind, s)
}

// Record is implemented by every concrete record type.
type Record interface {
	// RecordID is the stable identifier, unique within a kind.
	RecordID() string
	// LastModified returns the update timestamp if the record carries one.
	LastModified() (time.Time, bool)
}

// Resource is a source of knowledge: a link, a book, an article.
type Resource struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Question is asked about a resource.
type Question struct {
	ID         string     `json:"id"`
	ResourceID string     `json:"resourceId,omitempty"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// SubQuestion refines a question.
type SubQuestion struct {
	ID         string     `json:"id"`
	QuestionID string     `json:"questionId"`
	Content    string     `json:"content"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Answer answers a question or one of its sub-questions.
type Answer struct {
	ID            string     `json:"id"`
	QuestionID    string     `json:"questionId,omitempty"`
	SubQuestionID string     `json:"subQuestionId,omitempty"`
	Content       string     `json:"content"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

func (r Resource) RecordID() string    { return r.ID }
func (r Question) RecordID() string    { return r.ID }
func (r SubQuestion) RecordID() string { return r.ID }
func (r Answer) RecordID() string      { return r.ID }

func (r Resource) LastModified() (time.Time, bool)    { return deref(r.UpdatedAt) }
func (r Question) LastModified() (time.Time, bool)    { return deref(r.UpdatedAt) }
func (r SubQuestion) LastModified() (time.Time, bool) { return deref(r.UpdatedAt) }
func (r Answer) LastModified() (time.Time, bool)      { return deref(r.UpdatedAt) }

func deref(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// DecodeRecord unmarshals raw into the concrete type for kind. The record
// must carry a non-empty id.
func DecodeRecord(kind Kind, raw json.RawMessage) (Record, error) {
	var (
		rec Record
		err error
	)
	switch kind {
	case KindResources:
		var v Resource
		err = json.Unmarshal(raw, &v)
		rec = v
	case KindQuestions:
		var v Question
		err = json.Unmarshal(raw, &v)
		rec = v
	case KindSubQuestions:
		var v SubQuestion
		err = json.Unmarshal(raw, &v)
		rec = v
	case KindAnswers:
		var v Answer
		err = json.Unmarshal(raw, &v)
		rec = v
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s record: %w", kind, err)
	}
	if rec.RecordID() == "" {
		return nil, fmt.Errorf("%w: %s record without id", common.ErrInvalidDataset, kind)
	}
	return rec, nil
}

// KindOf returns the collection a concrete record belongs to.
func KindOf(rec Record) (Kind, error) {
	switch rec.(type) {
	case Resource, *Resource:
		return KindResources, nil
	case Question, *Question:
		return KindQuestions, nil
	case SubQuestion, *SubQuestion:
		return KindSubQuestions, nil
	case Answer, *Answer:
		return KindAnswers, nil
	}
	return "", fmt.Errorf("%w: %T", common.ErrInvalidKind, rec)
}

// Stamp returns a copy of rec with UpdatedAt set to t, and CreatedAt set to t
// when it was empty.
func Stamp(rec Record, t time.Time) Record {
	ts := t
	switch v := rec.(type) {
	case Resource:
		v.UpdatedAt = &ts
		if v.CreatedAt == nil {
			v.CreatedAt = &ts
		}
		return v
	case Question:
		v.UpdatedAt = &ts
		if v.CreatedAt == nil {
			v.CreatedAt = &ts
		}
		return v
	case SubQuestion:
		v.UpdatedAt = &ts
		if v.CreatedAt == nil {
			v.CreatedAt = &ts
		}
		return v
	case Answer:
		v.UpdatedAt = &ts
		if v.CreatedAt == nil {
			v.CreatedAt = &ts
		}
		return v
	}
	return rec
}
