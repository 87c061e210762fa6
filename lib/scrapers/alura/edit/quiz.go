package edit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/scrapers/alura/view"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/alura/edit")

type answerPayload struct {
	TaskId       string   `json:"taskId"`
	Alternatives []string `json:"alternatives"`
}

// answerUrl builds the submission endpoint for a question. The section
// index loses its zero padding on the wire.
func answerUrl(question *view.Question) string {
	section := question.Item().Section()
	index := strings.TrimLeft(section.Index, "0")
	if index == "" {
		index = "0"
	}
	mode := "multiplechoice"
	if question.IsSingleChoice() {
		mode = "singlechoice"
	}
	return fmt.Sprintf("%s/section/%s/%s/answer", section.Course().BaseUrl, index, mode)
}

// SubmitSelected posts the currently selected alternatives of the
// question.
func SubmitSelected(ctx context.Context, client *core.Client, question *view.Question) error {
	ctx, span := tracer.Start(ctx, "quiz:SubmitSelected")
	defer span.End()

	selected := question.SelectedIds()
	if len(selected) == 0 {
		span.SetStatus(codes.Error, NoAnswerSelected.Error())
		return fmt.Errorf("%w: %s", NoAnswerSelected, question.Item().Info().Url)
	}

	target := answerUrl(question)
	span.SetAttributes(
		attribute.String("url", target),
		attribute.StringSlice("alternatives", selected),
	)

	_, err := client.Request(ctx, http.MethodPost, target, &core.RequestOptions{
		Json: answerPayload{
			TaskId:       question.Item().TaskId(),
			Alternatives: selected,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit answer")
		return err
	}
	return nil
}

// Resolve selects the alternatives the page itself marks as correct
// and submits them.
func Resolve(ctx context.Context, client *core.Client, question *view.Question) error {
	question.SelectCorrect()
	if len(question.SelectedIds()) == 0 {
		return fmt.Errorf("%w: %s", NoKnownCorrectAnswer, question.Item().Info().Url)
	}
	return SubmitSelected(ctx, client, question)
}

// SendAnswers submits an explicit set of alternative ids, replacing
// whatever was selected before.
func SendAnswers(ctx context.Context, client *core.Client, question *view.Question, ids []string) error {
	question.ClearSelection()
	for _, id := range ids {
		found := false
		for _, answer := range question.Answers {
			if answer.Id == id {
				answer.Selected = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %s has no alternative %q",
				question.Item().Info().Url, id)
		}
	}
	return SubmitSelected(ctx, client, question)
}
