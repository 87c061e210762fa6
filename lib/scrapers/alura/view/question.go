package view

import (
	"fmt"

	"aluraget/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Answer is one alternative of a question. Correct mirrors the
// data-correct attribute the page leaks, Selected the checked state.
type Answer struct {
	Id       string
	Text     string
	Correct  bool
	Selected bool
}

type Question struct {
	item    *QuestionItem
	Answers []*Answer
}

func (q *Question) Item() *QuestionItem {
	return q.item
}

// IsSingleChoice reports whether at most one answer may be submitted.
// Practice class questions submit through the singlechoice endpoint as
// well.
func (q *Question) IsSingleChoice() bool {
	kind := q.item.Info().Kind
	return kind == ITEM_SINGLE_CHOICE || kind == ITEM_PRACTICE_CLASS_CONTENT
}

func (q *Question) SelectedIds() []string {
	var ids []string
	for _, answer := range q.Answers {
		if answer.Selected {
			ids = append(ids, answer.Id)
		}
	}
	return ids
}

// ClearSelection unchecks every answer.
func (q *Question) ClearSelection() {
	for _, answer := range q.Answers {
		answer.Selected = false
	}
}

// SelectCorrect checks the answers the page marks as correct. For
// single choice questions only the first correct one is kept.
func (q *Question) SelectCorrect() {
	q.ClearSelection()
	for _, answer := range q.Answers {
		if !answer.Correct {
			continue
		}
		answer.Selected = true
		if q.IsSingleChoice() {
			return
		}
	}
}

func parseQuestion(item *QuestionItem, doc *goquery.Document) (*Question, error) {
	question := &Question{item: item}

	doc.Find("div.container form li").Each(func(_ int, li *goquery.Selection) {
		id, ok := li.Attr("data-alternative-id")
		if !ok {
			return
		}
		question.Answers = append(question.Answers, &Answer{
			Id:       id,
			Text:     htmlutil.CleanText(li.Find("p").First().Text()),
			Correct:  isCorrectAttr(li),
			Selected: li.HasClass("alternativeList-item--checked"),
		})
	})

	if len(question.Answers) == 0 {
		return nil, fmt.Errorf("%w: no answer alternatives at %s", ContentNotFound, item.Info().Url)
	}
	return question, nil
}

// isCorrectAttr interprets the data-correct attribute. The markup is
// inconsistent across courses, so several truthy spellings are
// accepted.
func isCorrectAttr(li *goquery.Selection) bool {
	value, ok := li.Attr("data-correct")
	if !ok {
		return false
	}
	switch value {
	case "true", "yes", "1":
		return true
	}
	return false
}
