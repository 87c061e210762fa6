package view

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"aluraget/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// VideoSource is one rendition of a lecture video as reported by the
// /video endpoint.
type VideoSource struct {
	Quality string `json:"quality"`
	Mp4     string `json:"mp4"`
}

// Content is the fetched body of an item. Videos is populated only for
// video items and Question only for question items.
type Content struct {
	// item body converted to markdown
	Markdown string
	// verbatim html of the item body
	RawHtml string
	// renditions keyed by quality label ("hd", "sd")
	Videos   map[string]VideoSource
	Question *Question
	// whether the page came out of the local response cache
	Cached bool

	doc *goquery.Document
}

// fetchContent retrieves the item page, pacing the request unless the
// response cache already holds it.
func fetchContent(ctx context.Context, item Item) (*Content, error) {
	ctx, span := tracer.Start(ctx, "item:fetchContent")
	defer span.End()

	info := item.Info()
	span.SetAttributes(
		attribute.String("url", info.Url),
		attribute.String("kind", info.Kind.String()),
	)

	course := item.Section().Course()
	if !course.client.CachedGet(ctx, info.Url) {
		err := course.Throttle.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	doc, res, err := course.client.FetchRoot(ctx, info.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch item page")
		return nil, err
	}

	content := &Content{Cached: res.Cached, doc: doc}

	body := doc.Find("section#task-content").First()
	if body.Length() == 0 {
		span.SetStatus(codes.Error, ContentNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ContentNotFound, info.Url)
	}

	raw, err := goquery.OuterHtml(body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	content.RawHtml = raw
	content.Markdown = htmlutil.ToMarkdown(body.Nodes[0])

	// the page-level item title sits outside the content block
	header := htmlutil.CleanText(doc.Find("span.task-body-header-title-text").First().Text())
	if header != "" {
		content.Markdown = "# " + header + "\n\n" + content.Markdown
	}
	return content, nil
}

// fetchVideoSources queries the sibling /video endpoint for the mp4
// renditions of a lecture.
func fetchVideoSources(ctx context.Context, item Item) (map[string]VideoSource, error) {
	ctx, span := tracer.Start(ctx, "item:fetchVideoSources")
	defer span.End()

	info := item.Info()
	target := info.Url + "/video"
	span.SetAttributes(attribute.String("url", target))

	course := item.Section().Course()
	if !course.client.CachedGet(ctx, target) {
		err := course.Throttle.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	res, err := course.client.Request(ctx, http.MethodGet, target, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch video sources")
		return nil, err
	}

	var sources []VideoSource
	err = json.Unmarshal(res.Body, &sources)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode video sources")
		return nil, fmt.Errorf("failed to decode video sources from %s: %w", target, err)
	}
	if len(sources) == 0 {
		span.SetStatus(codes.Error, ContentNotFound.Error())
		return nil, fmt.Errorf("%w: no video sources at %s", ContentNotFound, target)
	}

	byQuality := make(map[string]VideoSource, len(sources))
	for _, source := range sources {
		byQuality[source.Quality] = source
	}
	return byQuality, nil
}
