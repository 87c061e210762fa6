package view

import (
	"context"
	"fmt"
	"log/slog"
	"aluraget/lib/htmlutil"
	"aluraget/lib/scrapers/alura/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/alura/view")

// Course is the root of the lazily resolved navigation tree. The
// sections list is fetched once and cached for the lifetime of the
// object, there is no invalidation.
type Course struct {
	// canonical https://host/course/<slug> url
	BaseUrl string
	// slug derived from the url
	Slug string
	// pacing shared by every item below this course
	Throttle *Throttle

	client *core.Client

	resolved    bool
	subcategory string
	sections    []*Section
}

func NewCourse(client *core.Client, rawUrl string) *Course {
	base := ExtractBaseURL(rawUrl)
	return &Course{
		BaseUrl:  base,
		Slug:     CourseSlug(base),
		Throttle: DefaultThrottle(),
		client:   client,
	}
}

func (c *Course) Client() *core.Client {
	return c.client
}

// Subcategory is scraped from the course landing page breadcrumb.
func (c *Course) Subcategory(ctx context.Context) (string, error) {
	err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return c.subcategory, nil
}

// Sections resolves and caches the ordered section list. Subsequent
// calls return the cached list without refetching.
func (c *Course) Sections(ctx context.Context) ([]*Section, error) {
	err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return c.sections, nil
}

// resolve walks the enrollment flow once: landing page, access button,
// state branch, section select.
func (c *Course) resolve(ctx context.Context) error {
	if c.resolved {
		return nil
	}

	ctx, span := tracer.Start(ctx, "course:resolve")
	defer span.End()
	span.SetAttributes(attribute.String("course", c.Slug))

	doc, _, err := c.client.FetchRoot(ctx, c.BaseUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course landing page")
		return err
	}

	if doc.Find("form#manual-evaluation").Length() > 0 {
		span.SetStatus(codes.Error, ManualEvaluationRequired.Error())
		return fmt.Errorf("%w: %s", ManualEvaluationRequired, c.Slug)
	}

	button := doc.Find("a.course-banner-link").First()
	if button.Length() == 0 {
		span.SetStatus(codes.Error, "missing access button")
		return fmt.Errorf("could not find access button on %s", c.BaseUrl)
	}
	if _, ok := button.Attr("data-course-workload"); !ok {
		span.SetStatus(codes.Error, CourseNotVisible.Error())
		return fmt.Errorf("%w: %s", CourseNotVisible, c.Slug)
	}
	accessHref, _ := button.Attr("href")

	crumbs := htmlutil.GetAnchors(ctx, doc.Find("nav.course-banner-breadcrumb a"))
	subcategory := ""
	if len(crumbs) > 0 {
		subcategory = crumbs[len(crumbs)-1].Name
	}
	if subcategory == "" {
		span.SetStatus(codes.Error, "missing breadcrumb subcategory")
		return fmt.Errorf("could not find subcategory breadcrumb on %s", c.BaseUrl)
	}

	tasksUrl, err := c.resolveAccessUrl(ctx, accessHref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve course state")
		return err
	}

	sectionsDoc, _, err := c.client.FetchRoot(ctx, tasksUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch section page")
		return err
	}
	sections, err := parseSections(c, sectionsDoc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse section select")
		return err
	}

	slog.DebugContext(ctx, "resolved course",
		"course", c.Slug,
		"subcategory", subcategory,
		"sections", len(sections),
	)

	c.subcategory = subcategory
	c.sections = sections
	c.resolved = true
	return nil
}

// resolveAccessUrl maps the access button target onto a fetchable task
// list url. The trailing path segment encodes the enrollment state:
// completed courses carry /access, in-progress ones /continue and
// never-started ones /tryToEnroll, the latter two levels of
// indirection resolve through a redirect.
func (c *Course) resolveAccessUrl(ctx context.Context, accessHref string) (string, error) {
	parts := splitPath(accessHref)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty access url", UnsupportedCourseState)
	}

	switch parts[len(parts)-1] {
	case "access", "tryToEnroll":
		return c.client.ResolveRedirect(ctx, accessHref)
	case "continue":
		return accessHref, nil
	default:
		return "", fmt.Errorf("%w: access url ends in %q", UnsupportedCourseState, parts[len(parts)-1])
	}
}

// GetItem fetches a single item page directly, outside the usual
// course walk. The enclosing section is recovered from the selected
// option of the section select.
func (c *Course) GetItem(ctx context.Context, itemUrl string) (Item, error) {
	ctx, span := tracer.Start(ctx, "course:GetItem")
	defer span.End()
	span.SetAttributes(attribute.String("url", itemUrl))

	doc, _, err := c.client.FetchRoot(ctx, itemUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch item page")
		return nil, err
	}

	sel := doc.Find("select.task-menu-sections-select").First()
	if sel.Length() == 0 {
		span.SetStatus(codes.Error, "missing section select")
		return nil, fmt.Errorf("could not find section select on %s", itemUrl)
	}
	option := sel.Find("option[selected]").First()
	if option.Length() == 0 {
		span.SetStatus(codes.Error, "missing selected option")
		return nil, fmt.Errorf("could not find selected section option on %s", itemUrl)
	}

	template, err := sectionUrlTemplate(sel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	value, _ := option.Attr("value")
	label := htmlutil.CleanText(option.Text())

	section, err := newSection(c, label, expandSectionUrl(template, value))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	items, err := section.Items(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list section items")
		return nil, err
	}

	wantId := TaskID(itemUrl)
	for _, item := range items {
		if TaskID(item.Info().Url) == wantId {
			return item, nil
		}
	}
	span.SetStatus(codes.Error, ItemNotFound.Error())
	return nil, fmt.Errorf("%w: %s", ItemNotFound, itemUrl)
}
