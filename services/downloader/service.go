package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/scrapers/alura/view"
	"aluraget/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/downloader")

// Service mirrors courses into a local directory tree of markdown and
// mp4 files, laid out as
// <base>/<subcategory>/<course>/<NN>-<section>/<NN>-<item>.<ext>.
type Service struct {
	client  *core.Client
	baseDir string

	newThrottle func() *view.Throttle
}

func NewService(client *core.Client, baseDir string) Service {
	return Service{
		client:      client,
		baseDir:     baseDir,
		newThrottle: view.DefaultThrottle,
	}
}

// courseDir resolves the directory a course downloads into.
func (s Service) courseDir(ctx context.Context, course *view.Course) (string, error) {
	subcategory, err := course.Subcategory(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(
		s.baseDir,
		textutil.Slugify(subcategory),
		course.Slug,
	), nil
}

func sectionDirName(section *view.Section) string {
	return fmt.Sprintf("%s-%s", section.Index, textutil.Slugify(section.Title))
}

func itemFileName(item view.Item, ext string) string {
	info := item.Info()
	return fmt.Sprintf("%s-%s.%s", info.Index, textutil.Slugify(info.Title), ext)
}

// ItemPath is the path DownloadItem writes the item to. Videos become
// mp4 files, every other kind becomes a markdown file.
func (s Service) ItemPath(ctx context.Context, item view.Item) (string, error) {
	ext := "md"
	if item.Info().Kind.IsVideo() {
		ext = "mp4"
	}

	section := item.Section()
	courseDir, err := s.courseDir(ctx, section.Course())
	if err != nil {
		return "", err
	}
	return filepath.Join(courseDir, sectionDirName(section), itemFileName(item, ext)), nil
}

// DownloadItem fetches the item's content and writes it out. Items that
// already exist on disk are left alone without touching the network.
func (s Service) DownloadItem(ctx context.Context, item view.Item) (string, error) {
	ctx, span := tracer.Start(ctx, "DownloadItem")
	defer span.End()

	info := item.Info()
	span.SetAttributes(
		attribute.String("url", info.Url),
		attribute.String("kind", info.Kind.String()),
	)

	path, err := s.ItemPath(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		slog.DebugContext(ctx, "item already downloaded", "path", path)
		return path, nil
	}
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	content, err := item.GetContent(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch item content")
		return "", err
	}

	if info.Kind.IsVideo() {
		err = s.downloadVideo(ctx, content, path)
	} else {
		err = writeAtomically(path, []byte(content.Markdown))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write item")
		return "", err
	}

	slog.InfoContext(ctx, "downloaded item", "path", path)
	return path, nil
}

// downloadVideo streams the best available rendition to disk.
func (s Service) downloadVideo(ctx context.Context, content *view.Content, path string) error {
	source, ok := content.Videos["hd"]
	if !ok {
		for _, fallback := range content.Videos {
			source = fallback
			break
		}
	}
	if source.Mp4 == "" {
		return fmt.Errorf("no video rendition to download to %s", path)
	}

	res, err := s.client.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(source.Mp4)
	if err != nil {
		return err
	}
	defer res.RawBody().Close()
	if res.StatusCode() >= 400 {
		return &core.StatusError{Code: res.StatusCode(), Url: source.Mp4}
	}

	return streamAtomically(path, res.RawBody())
}

// DownloadCourse walks every section and downloads every item,
// tolerating individual item failures so one broken page doesn't
// abort a mostly working mirror.
func (s Service) DownloadCourse(ctx context.Context, course *view.Course) error {
	ctx, span := tracer.Start(ctx, "DownloadCourse")
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
			_, err := s.DownloadItem(ctx, item)
			if err != nil {
				slog.ErrorContext(ctx, "failed to download item",
					"course", course.Slug,
					"section", section.Index,
					"item", item.Info().Title,
					"err", err)
				failed = append(failed, err)
			}
		}
	}

	if len(failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d items failed", len(failed)))
		return errors.Join(failed...)
	}
	return nil
}

// DownloadList downloads every course url not yet recorded in the
// history file, recording each successful mirror so reruns skip it.
func (s Service) DownloadList(ctx context.Context, urls []string) error {
	ctx, span := tracer.Start(ctx, "DownloadList")
	defer span.End()

	history, err := s.LoadHistory()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var failed []error
	for _, raw := range urls {
		base := view.ExtractBaseURL(raw)
		if history.Contains(base) {
			slog.InfoContext(ctx, "course already downloaded, skipping", "url", base)
			continue
		}

		course := view.NewCourse(s.client, base)
		course.Throttle = s.newThrottle()
		err := s.DownloadCourse(ctx, course)
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", base, err))
			continue
		}

		history.Add(base)
		err = s.SaveHistory(history)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if len(failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d courses failed", len(failed)))
		return errors.Join(failed...)
	}
	return nil
}
