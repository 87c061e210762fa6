package completer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/scrapers/alura/edit"
	"aluraget/lib/scrapers/alura/view"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/completer")

// Options are the pauses inserted after completing an item, roughly
// matching how long a person would spend on it.
type Options struct {
	VideoWait    time.Duration
	QuestionWait time.Duration
	DocumentWait time.Duration
}

func DefaultOptions() Options {
	return Options{
		VideoWait:    time.Minute * 5,
		QuestionWait: time.Second * 60,
		DocumentWait: time.Minute * 2,
	}
}

// Service marks course items as completed on the platform: videos and
// documents through the watched endpoint, questions by submitting the
// correct alternatives.
type Service struct {
	client *core.Client
	opts   Options

	sleep func(time.Duration)
}

func NewService(client *core.Client, opts Options) Service {
	return Service{
		client: client,
		opts:   opts,
		sleep:  time.Sleep,
	}
}

func (s Service) waitFor(kind view.ItemKind) time.Duration {
	switch {
	case kind.IsVideo():
		return s.opts.VideoWait
	case kind.IsQuestion():
		return s.opts.QuestionWait
	default:
		return s.opts.DocumentWait
	}
}

// CompleteItem completes a single item, reporting whether anything was
// actually submitted. Items the platform already shows as done are
// skipped.
func (s Service) CompleteItem(ctx context.Context, item view.Item) (bool, error) {
	ctx, span := tracer.Start(ctx, "CompleteItem")
	defer span.End()

	info := item.Info()
	span.SetAttributes(
		attribute.String("url", info.Url),
		attribute.String("kind", info.Kind.String()),
	)

	if info.Done {
		slog.DebugContext(ctx, "item already completed, skipping", "url", info.Url)
		return false, nil
	}

	if info.Kind.IsQuestion() {
		content, err := item.GetContent(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch question")
			return false, err
		}
		err = edit.Resolve(ctx, s.client, content.Question)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to answer question")
			return false, err
		}
		return true, nil
	}

	marked, err := edit.MarkWatched(ctx, s.client, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark item watched")
		return false, err
	}
	return marked, nil
}

// CompleteCourse walks every section and completes every pending item,
// pausing between submissions. Individual failures are logged and the
// walk continues.
func (s Service) CompleteCourse(ctx context.Context, course *view.Course) error {
	ctx, span := tracer.Start(ctx, "CompleteCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.Slug))

	sections, err := course.Sections(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list sections")
		return err
	}

	var failed []error
	for _, section := range sections {
		items, err := section.Items(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list section items",
				"course", course.Slug, "section", section.Index, "err", err)
			failed = append(failed, err)
			continue
		}
		for _, item := range items {
			completed, err := s.CompleteItem(ctx, item)
			if err != nil {
				slog.ErrorContext(ctx, "failed to complete item",
					"course", course.Slug,
					"section", section.Index,
					"item", item.Info().Title,
					"err", err)
				failed = append(failed, err)
				continue
			}
			if completed {
				slog.InfoContext(ctx, "completed item",
					"course", course.Slug,
					"section", section.Index,
					"item", item.Info().Title)
				s.sleep(s.waitFor(item.Info().Kind))
			}
		}
	}

	if len(failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d items failed", len(failed)))
		return errors.Join(failed...)
	}
	return nil
}
