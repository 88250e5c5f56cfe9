package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Metadata holds the non-record fields of a dataset.
type Metadata struct {
	LastSync *time.Time `json:"lastSync,omitempty"`
	Version  string     `json:"version,omitempty"`
	DeviceID string     `json:"deviceId,omitempty"`
}

// Dataset is the full knowledge base of one replica.
//
// Values captured for comparison are treated as immutable snapshots: code
// that needs to change a dataset works on a Clone.
type Dataset struct {
	Resources    []Resource    `json:"resources"`
	Questions    []Question    `json:"questions"`
	SubQuestions []SubQuestion `json:"subQuestions"`
	Answers      []Answer      `json:"answers"`
	Metadata     Metadata      `json:"metadata"`
}

// NewDataset returns an empty dataset whose collections marshal as [] rather than null.
func NewDataset() *Dataset {
	return &Dataset{
		Resources:    []Resource{},
		Questions:    []Question{},
		SubQuestions: []SubQuestion{},
		Answers:      []Answer{},
		Metadata:     Metadata{Version: common.DatasetVersion},
	}
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Resources:    make([]Resource, len(d.Resources)),
		Questions:    slices.Clone(d.Questions),
		SubQuestions: slices.Clone(d.SubQuestions),
		Answers:      slices.Clone(d.Answers),
		Metadata:     d.Metadata,
	}
	for i, r := range d.Resources {
		r.Tags = slices.Clone(r.Tags)
		out.Resources[i] = r
	}
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	if out.SubQuestions == nil {
		out.SubQuestions = []SubQuestion{}
	}
	if out.Answers == nil {
		out.Answers = []Answer{}
	}
	if d.Metadata.LastSync != nil {
		ls := *d.Metadata.LastSync
		out.Metadata.LastSync = &ls
	}
	return out
}

// Count returns the number of records of the given kind.
func (d *Dataset) Count(kind Kind) int {
	switch kind {
	case KindResources:
		return len(d.Resources)
	case KindQuestions:
		return len(d.Questions)
	case KindSubQuestions:
		return len(d.SubQuestions)
	case KindAnswers:
		return len(d.Answers)
	}
	return 0
}

// Records returns the collection of the given kind as a slice of Record.
func (d *Dataset) Records(kind Kind) []Record {
	switch kind {
	case KindResources:
		return toRecords(d.Resources)
	case KindQuestions:
		return toRecords(d.Questions)
	case KindSubQuestions:
		return toRecords(d.SubQuestions)
	case KindAnswers:
		return toRecords(d.Answers)
	}
	return nil
}

func toRecords[T Record](in []T) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

// SetRecords replaces the collection of kind with recs. Every element must
// have the concrete type of that collection.
func (d *Dataset) SetRecords(kind Kind, recs []Record) error {
	var err error
	switch kind {
	case KindResources:
		d.Resources, err = fromRecords[Resource](kind, recs)
	case KindQuestions:
		d.Questions, err = fromRecords[Question](kind, recs)
	case KindSubQuestions:
		d.SubQuestions, err = fromRecords[SubQuestion](kind, recs)
	case KindAnswers:
		d.Answers, err = fromRecords[Answer](kind, recs)
	default:
		err = fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}
	return err
}

func fromRecords[T Record](kind Kind, recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		v, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T in %s", common.ErrInvalidKind, r, kind)
		}
		out = append(out, v)
	}
	return out, nil
}

// Find looks a record up by kind and id.
func (d *Dataset) Find(kind Kind, id string) (Record, bool) {
	for _, r := range d.Records(kind) {
		if r.RecordID() == id {
			return r, true
		}
	}
	return nil, false
}

// Put inserts rec, or replaces the record with the same id in place.
func (d *Dataset) Put(rec Record) error {
	switch v := rec.(type) {
	case Resource:
		d.Resources = upsert(d.Resources, v)
	case Question:
		d.Questions = upsert(d.Questions, v)
	case SubQuestion:
		d.SubQuestions = upsert(d.SubQuestions, v)
	case Answer:
		d.Answers = upsert(d.Answers, v)
	default:
		return fmt.Errorf("%w: %T", common.ErrInvalidKind, rec)
	}
	return nil
}

// Remove deletes the record with the given id and reports whether it existed.
func (d *Dataset) Remove(kind Kind, id string) bool {
	var removed bool
	switch kind {
	case KindResources:
		d.Resources, removed = remove(d.Resources, id)
	case KindQuestions:
		d.Questions, removed = remove(d.Questions, id)
	case KindSubQuestions:
		d.SubQuestions, removed = remove(d.SubQuestions, id)
	case KindAnswers:
		d.Answers, removed = remove(d.Answers, id)
	}
	return removed
}

func upsert[T Record](list []T, rec T) []T {
	for i := range list {
		if list[i].RecordID() == rec.RecordID() {
			list[i] = rec
			return list
		}
	}
	return append(list, rec)
}

func remove[T Record](list []T, id string) ([]T, bool) {
	i := slices.IndexFunc(list, func(r T) bool { return r.RecordID() == id })
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

// DecodeDataset parses the JSON wire form of a dataset and validates its
// structure. Every collection key must be present; an empty array is fine,
// a missing key is not, since treating it as empty would look like a mass
// deletion to the comparator.
func DecodeDataset(raw []byte) (*Dataset, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDataset, err)
	}
	for _, k := range AllKinds {
		v, ok := fields[string(k)]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: missing collection %q", common.ErrInvalidDataset, k)
		}
	}

	ds := NewDataset()
	if err := json.Unmarshal(raw, ds); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDataset, err)
	}
	for _, k := range AllKinds {
		seen := make(map[string]struct{}, ds.Count(k))
		for _, r := range ds.Records(k) {
			id := r.RecordID()
			if id == "" {
				return nil, fmt.Errorf("%w: %s record without id", common.ErrInvalidDataset, k)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("%w: duplicate %s id %q", common.ErrInvalidDataset, k, id)
			}
			seen[id] = struct{}{}
		}
	}
	return ds, nil
}

// EncodeDataset is the inverse of DecodeDataset.
func EncodeDataset(ds *Dataset) ([]byte, error) {
	return json.MarshalIndent(ds, "", "  ")
}
