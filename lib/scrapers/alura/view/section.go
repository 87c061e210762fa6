package view

import (
	"context"
	"fmt"
	"strings"

	"aluraget/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// sectionValuePlaceholder is the javascript expression embedded in the
// onchange handler of the section select. Substituting an option value
// for it yields the url of that section's first task.
const sectionValuePlaceholder = "'+this.value+'"

// Section is one entry of the course's section select. The index is
// kept as the verbatim label prefix, zero padding included, because it
// reappears in urls and download paths.
type Section struct {
	Index string
	Title string
	Url   string

	course *Course
	items  []Item
}

func (s *Section) Course() *Course {
	return s.course
}

// newSection splits an option label of the form "03. Configuración del
// entorno" into index and title.
func newSection(course *Course, label, url string) (*Section, error) {
	index, title, found := strings.Cut(label, ".")
	if !found {
		return nil, fmt.Errorf("section label %q has no index prefix", label)
	}
	return &Section{
		Index:  strings.TrimSpace(index),
		Title:  strings.TrimSpace(title),
		Url:    url,
		course: course,
	}, nil
}

func parseSections(course *Course, doc *goquery.Document) ([]*Section, error) {
	sel := doc.Find("select.task-menu-sections-select").First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("could not find section select")
	}
	template, err := sectionUrlTemplate(sel)
	if err != nil {
		return nil, err
	}

	var sections []*Section
	var parseErr error
	sel.Find("option").EachWithBreak(func(_ int, option *goquery.Selection) bool {
		value, ok := option.Attr("value")
		if !ok || value == "" {
			return true
		}
		section, err := newSection(
			course,
			htmlutil.CleanText(option.Text()),
			expandSectionUrl(template, value),
		)
		if err != nil {
			parseErr = err
			return false
		}
		sections = append(sections, section)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("section select has no options")
	}
	return sections, nil
}

func sectionUrlTemplate(sel *goquery.Selection) (string, error) {
	onchange, ok := sel.Attr("onchange")
	if !ok {
		return "", fmt.Errorf("section select has no onchange handler")
	}
	start := strings.Index(onchange, "'")
	end := strings.LastIndex(onchange, "'")
	if start < 0 || end <= start {
		return "", fmt.Errorf("could not extract url template from onchange %q", onchange)
	}
	template := onchange[start+1 : end]
	if !strings.Contains(template, sectionValuePlaceholder) {
		return "", fmt.Errorf("url template %q has no value placeholder", template)
	}
	return template, nil
}

func expandSectionUrl(template, value string) string {
	return strings.ReplaceAll(template, sectionValuePlaceholder, value)
}

// Items resolves and caches the ordered item list of this section.
func (s *Section) Items(ctx context.Context) ([]Item, error) {
	if s.items != nil {
		return s.items, nil
	}

	ctx, span := tracer.Start(ctx, "section:Items")
	defer span.End()
	span.SetAttributes(
		attribute.String("course", s.course.Slug),
		attribute.String("section", s.Index),
	)

	doc, _, err := s.course.client.FetchRoot(ctx, s.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch section task list")
		return nil, err
	}

	var items []Item
	var parseErr error
	doc.Find("ul.task-menu-nav-list li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		item, err := parseItem(s, i+1, li)
		if err != nil {
			parseErr = err
			return false
		}
		items = append(items, item)
		return true
	})
	if parseErr != nil {
		span.RecordError(parseErr)
		span.SetStatus(codes.Error, "failed to parse task list entry")
		return nil, parseErr
	}
	if len(items) == 0 {
		span.SetStatus(codes.Error, "empty task list")
		return nil, fmt.Errorf("section %s of %s has no items", s.Index, s.course.Slug)
	}

	s.items = items
	return items, nil
}
