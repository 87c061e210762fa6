package view

import (
	"context"
	"fmt"
	"strings"

	"aluraget/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ItemInfo is the static metadata scraped from the section task list,
// available without fetching the item page itself.
type ItemInfo struct {
	// position label as the task list shows it, usually zero padded
	// ("01", "02"), kept verbatim
	Index string
	Title string
	Url   string
	Kind  ItemKind
	// whether the platform already shows the item as completed
	Done bool
}

type Item interface {
	Info() ItemInfo
	Section() *Section
	// TaskId is the numeric id taken from the item url.
	TaskId() string
	GetContent(ctx context.Context) (*Content, error)
}

type baseItem struct {
	info    ItemInfo
	section *Section
}

func (b *baseItem) Info() ItemInfo    { return b.info }
func (b *baseItem) Section() *Section { return b.section }
func (b *baseItem) TaskId() string    { return TaskID(b.info.Url) }

// VideoItem is a lecture with downloadable mp4 renditions.
type VideoItem struct {
	baseItem
}

func (v *VideoItem) GetContent(ctx context.Context) (*Content, error) {
	content, err := fetchContent(ctx, v)
	if err != nil {
		return nil, err
	}
	videos, err := fetchVideoSources(ctx, v)
	if err != nil {
		return nil, err
	}
	content.Videos = videos
	return content, nil
}

// DocumentItem is a reading item whose body converts to markdown.
type DocumentItem struct {
	baseItem
}

func (d *DocumentItem) GetContent(ctx context.Context) (*Content, error) {
	return fetchContent(ctx, d)
}

// QuestionItem is a single or multiple choice exercise.
type QuestionItem struct {
	baseItem
}

func (q *QuestionItem) GetContent(ctx context.Context) (*Content, error) {
	content, err := fetchContent(ctx, q)
	if err != nil {
		return nil, err
	}
	question, err := parseQuestion(q, content.doc)
	if err != nil {
		return nil, err
	}
	content.Question = question
	return content, nil
}

// GenericItem covers the kinds without dedicated handling (challenges,
// feedback prompts). Its content is the raw page body.
type GenericItem struct {
	baseItem
}

func (g *GenericItem) GetContent(ctx context.Context) (*Content, error) {
	return fetchContent(ctx, g)
}

// newItem wraps the metadata in the variant matching its kind.
func newItem(info ItemInfo, section *Section) Item {
	base := baseItem{info: info, section: section}
	switch {
	case info.Kind.IsVideo():
		return &VideoItem{base}
	case info.Kind.IsQuestion():
		return &QuestionItem{base}
	case info.Kind.IsDocument():
		return &DocumentItem{base}
	default:
		return &GenericItem{base}
	}
}

// parseItem reads one <li> of the task list.
func parseItem(section *Section, index int, li *goquery.Selection) (Item, error) {
	anchor := li.Find("a").First()
	if anchor.Length() == 0 {
		return nil, fmt.Errorf("task list entry %d of section %s has no link", index, section.Index)
	}
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("task list entry %d of section %s has no href", index, section.Index)
	}
	if strings.HasPrefix(href, "/") {
		href = strings.TrimSuffix(section.course.client.BaseUrl.String(), "/") + href
	}

	// the html parser namespaces xlink:href inside <svg>, so the token
	// can surface under either attribute name
	use := li.Find("use").First()
	token, ok := use.Attr("xlink:href")
	if !ok {
		token, ok = use.Attr("href")
	}
	if !ok {
		return nil, fmt.Errorf("task list entry %d of section %s has no kind icon", index, section.Index)
	}
	kind, err := KindFromToken(strings.TrimPrefix(token, "#"))
	if err != nil {
		return nil, fmt.Errorf("task list entry %d of section %s: %w", index, section.Index, err)
	}

	done := li.Find("svg").First().HasClass("task-menu-nav-item-svg--done")

	number := htmlutil.CleanText(li.Find("span.task-menu-nav-item-number").Text())
	if number == "" {
		return nil, fmt.Errorf("task list entry %d of section %s has no number", index, section.Index)
	}

	title := htmlutil.CleanText(anchor.Find("span.task-menu-nav-item-title").Text())
	if title == "" {
		title = htmlutil.CleanText(anchor.Text())
	}

	return newItem(ItemInfo{
		Index: number,
		Title: title,
		Url:   href,
		Kind:  kind,
		Done:  done,
	}, section), nil
}
