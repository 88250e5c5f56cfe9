package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// getMultiline is an indirection used to facilitate testing.
var getMultiline = GetMultiline

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) askMultiline(prompt string) (string, error) {
	return getMultiline(a.reader, prompt, a.out)
}

// askDefault shows the current value and keeps it when the answer is empty.
func (a *App) askDefault(prompt, current string) (string, error) {
	v, err := a.ask(fmt.Sprintf("%s [%s]", prompt, current))
	if err != nil || v == "" {
		return current, err
	}
	return v, nil
}

func kindArg(args []string, usage string) (models.Kind, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return models.ParseKind(args[0])
}

// Add prompts for the fields of the kind named in args[0] and stores the
// new record.
func (a *App) Add(ctx context.Context, args []string) error {
	kind, err := kindArg(args, "add <resource|question|sq|answer>")
	if err != nil {
		a.printf("%v\n", err)
		return err
	}

	var rec models.Record
	switch kind {
	case models.KindResources:
		rec, err = a.addResource(ctx)
	case models.KindQuestions:
		rec, err = a.addQuestion(ctx)
	case models.KindSubQuestions:
		rec, err = a.addSubQuestion(ctx)
	case models.KindAnswers:
		rec, err = a.addAnswer(ctx)
	}
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Added %s %s\n", kind, rec.RecordID())
	return nil
}

func (a *App) addResource(ctx context.Context) (models.Record, error) {
	var r models.Resource
	var err error
	if r.Title, err = a.ask("Title"); err != nil {
		return nil, err
	}
	if r.URL, err = a.ask("URL"); err != nil {
		return nil, err
	}
	if r.Description, err = a.askMultiline("Description"); err != nil {
		return nil, err
	}
	if r.Tags, err = GetTags(a.reader, "Tags", a.out); err != nil {
		return nil, err
	}
	return a.knowledge.AddResource(ctx, r)
}

func (a *App) addQuestion(ctx context.Context) (models.Record, error) {
	var q models.Question
	var err error
	if q.ResourceID, err = a.ask("Resource id (optional)"); err != nil {
		return nil, err
	}
	if q.Title, err = a.ask("Question"); err != nil {
		return nil, err
	}
	if q.Content, err = a.askMultiline("Details"); err != nil {
		return nil, err
	}
	return a.knowledge.AddQuestion(ctx, q)
}

func (a *App) addSubQuestion(ctx context.Context) (models.Record, error) {
	var s models.SubQuestion
	var err error
	if s.QuestionID, err = a.ask("Question id"); err != nil {
		return nil, err
	}
	if s.Content, err = a.ask("Sub-question"); err != nil {
		return nil, err
	}
	return a.knowledge.AddSubQuestion(ctx, s)
}

func (a *App) addAnswer(ctx context.Context) (models.Record, error) {
	var ans models.Answer
	var err error
	if ans.QuestionID, err = a.ask("Question id"); err != nil {
		return nil, err
	}
	if ans.SubQuestionID, err = a.ask("Sub-question id (optional)"); err != nil {
		return nil, err
	}
	if ans.Content, err = a.askMultiline("Answer"); err != nil {
		return nil, err
	}
	return a.knowledge.AddAnswer(ctx, ans)
}

// List prints one line per record of a kind.
func (a *App) List(ctx context.Context, args []string) error {
	kind, err := kindArg(args, "list <kind>")
	if err != nil {
		a.printf("%v\n", err)
		return err
	}
	recs, err := a.knowledge.List(ctx, kind)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	if len(recs) == 0 {
		a.printf("No %s yet.\n", kind)
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\n", r.RecordID(), headline(r))
	}
	_ = tw.Flush()
	a.printf("%s", b.String())
	return nil
}

func headline(r models.Record) string {
	var s string
	switch v := r.(type) {
	case models.Resource:
		s = v.Title
	case models.Question:
		s = v.Title
	case models.SubQuestion:
		s = v.Content
	case models.Answer:
		s = v.Content
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) > 60 {
		s = string([]rune(s)[:57]) + "..."
	}
	return s
}

// Show prints a record as indented JSON.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.printf("Usage: show <kind> <id>\n")
		return common.ErrInvalidRecord
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		a.printf("%v\n", err)
		return err
	}
	rec, err := a.knowledge.Get(ctx, kind, args[1])
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	a.printf("%s\n", b)
	return nil
}

// Edit prompts for new values, keeping the current ones on empty input.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.printf("Usage: edit <kind> <id>\n")
		return common.ErrInvalidRecord
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		a.printf("%v\n", err)
		return err
	}
	rec, err := a.knowledge.Get(ctx, kind, args[1])
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	switch v := rec.(type) {
	case models.Resource:
		if v.Title, err = a.askDefault("Title", v.Title); err == nil {
			v.URL, err = a.askDefault("URL", v.URL)
		}
		rec = v
	case models.Question:
		if v.Title, err = a.askDefault("Question", v.Title); err == nil {
			v.Content, err = a.askDefault("Details", v.Content)
		}
		rec = v
	case models.SubQuestion:
		v.Content, err = a.askDefault("Sub-question", v.Content)
		rec = v
	case models.Answer:
		v.Content, err = a.askDefault("Answer", v.Content)
		rec = v
	}
	if err != nil {
		return err
	}

	if _, err := a.knowledge.Update(ctx, rec); err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Updated %s %s\n", kind, rec.RecordID())
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.printf("Usage: delete <kind> <id>\n")
		return common.ErrInvalidRecord
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		a.printf("%v\n", err)
		return err
	}
	if err := a.knowledge.Delete(ctx, kind, args[1]); err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Deleted %s %s\n", kind, args[1])
	return nil
}
