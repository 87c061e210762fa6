package edit

import (
	"context"
	"net/http"

	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/scrapers/alura/view"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MarkWatched reports the item as completed to the platform. Question
// items cannot be completed this way and are reported back as skipped,
// they complete through answer submission instead.
func MarkWatched(ctx context.Context, client *core.Client, item view.Item) (bool, error) {
	if item.Info().Kind.IsQuestion() {
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "watch:MarkWatched")
	defer span.End()

	target := item.Info().Url + "/mark-video"
	span.SetAttributes(attribute.String("url", target))

	_, err := client.Request(ctx, http.MethodPost, target, &core.RequestOptions{
		FormData: map[string]string{
			"courseCode":  item.Section().Course().Slug,
			"videoTaskId": item.TaskId(),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark item watched")
		return false, err
	}
	return true, nil
}
