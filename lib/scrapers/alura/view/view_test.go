package view

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"aluraget/lib/httpcache"
	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/sqliteutil"
	"aluraget/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const cookieFixture = ".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\tSESSION\tabc123\n" +
	".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\tcaelum.login.token\ttok456\n" +
	".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\talura.userId\t789\n"

// landingPage takes the access button href.
const landingPage = `<nav class="course-banner-breadcrumb">
  <a href="/courses">Cursos</a>
  <a href="/courses/programacion">Programación</a>
</nav>
<a class="course-banner-link" data-course-workload="8h" href="%s">Acceder al curso</a>`

// sectionSelect takes the selected marker of the first real option,
// either "" or " selected".
const sectionSelect = `<select class="task-menu-sections-select"
  onchange="window.location.href='/course/go-basico/section/'+this.value+'/tasks'">
  <option value="">Secciones</option>
  <option value="111"%s>01. Introducción</option>
  <option value="112">03. Configuración del entorno</option>
</select>`

const taskList = `<ul class="task-menu-nav-list">
  <li><a href="/course/go-basico/task/87011">
    <svg class="task-menu-nav-item-svg task-menu-nav-item-svg--done"><use xlink:href="#VIDEO"></use></svg>
    <span class="task-menu-nav-item-number">01</span>
    <span class="task-menu-nav-item-title">Presentación</span></a></li>
  <li><a href="/course/go-basico/task/87012">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#SINGLE_CHOICE"></use></svg>
    <span class="task-menu-nav-item-number">02</span>
    <span class="task-menu-nav-item-title">Haga lo que hicimos</span></a></li>
  <li><a href="/course/go-basico/task/87013">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#WHAT_WE_LEARNED"></use></svg>
    <span class="task-menu-nav-item-number">03</span>
    <span class="task-menu-nav-item-title">Lo que aprendimos</span></a></li>
</ul>`

const questionBody = `<section id="task-content"><p>¿Qué imprime el programa?</p></section>
<div class="container"><form action="/answer"><ul class="alternativeList">
  <li class="alternativeList-item" data-alternative-id="42" data-correct="true"><p>La correcta</p></li>
  <li class="alternativeList-item alternativeList-item--checked" data-alternative-id="43" data-correct="false"><p>La incorrecta</p></li>
</ul></form></div>`

func writeCookieFile(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	err := os.WriteFile(path, []byte(cookieFixture), 0o644)
	require.NoError(t, err)
	return path
}

func newTestClient(t *testing.T, serverUrl string, withCache bool) *core.Client {
	cleanup := telemetry.SetupForTesting(t, "test:alura-view")
	t.Cleanup(cleanup)

	var cache *httpcache.Cache
	if withCache {
		db, err := sqliteutil.OpenDB(httpcache.Schema, ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		cache = httpcache.New(db, 0)
	}

	client, err := core.NewClient(context.Background(), core.ClientOptions{
		BaseUrl:    serverUrl,
		CookiePath: writeCookieFile(t),
		Cache:      cache,
	})
	require.NoError(t, err)
	return client
}

func writePage(w http.ResponseWriter, fragments ...string) {
	w.Header().Set("content-type", "text/html")
	w.Write([]byte("<html><body>"))
	for _, fragment := range fragments {
		w.Write([]byte(fragment))
	}
	w.Write([]byte("</body></html>"))
}

// newCourseSite serves the fixture course behind an httptest server and
// returns a course with pacing disabled.
func newCourseSite(t *testing.T, withCache bool) *Course {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(landingPage, "/course/go-basico/continue"))
	})
	mux.HandleFunc("/course/go-basico/continue", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, ""), taskList)
	})
	mux.HandleFunc("/course/go-basico/section/111/tasks", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, ""), taskList)
	})
	mux.HandleFunc("/course/go-basico/task/87011", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, " selected"),
			`<section id="task-content"><h1>Presentación</h1><p>Bienvenido al curso.</p></section>`)
	})
	mux.HandleFunc("/course/go-basico/task/87011/video", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`[{"quality":"hd","mp4":"https://cdn.example.com/87011-hd.mp4"},` +
			`{"quality":"sd","mp4":"https://cdn.example.com/87011-sd.mp4"}]`))
	})
	mux.HandleFunc("/course/go-basico/task/87012", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, " selected"), questionBody)
	})
	mux.HandleFunc("/course/go-basico/task/87013", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, " selected"),
			`<section id="task-content"><h2>Lo que aprendimos</h2><p>Resumen de la clase.</p></section>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, withCache)
	course := NewCourse(client, server.URL+"/course/go-basico")
	course.Throttle = NewThrottle(0, 0, 0)
	return course
}

func TestCourseSectionsAndSubcategory(t *testing.T) {
	course := newCourseSite(t, false)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	require.Equal(t, "01", sections[0].Index)
	require.Equal(t, "Introducción", sections[0].Title)
	// zero padding of the label survives verbatim
	require.Equal(t, "03", sections[1].Index)
	require.Equal(t, "Configuración del entorno", sections[1].Title)
	require.Equal(t, "/course/go-basico/section/112/tasks", sections[1].Url)

	subcategory, err := course.Subcategory(ctx)
	require.NoError(t, err)
	require.Equal(t, "Programación", subcategory)
}

func TestCourseManualEvaluationRequired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, `<form id="manual-evaluation" action="/evaluate"></form>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	_, err := course.Sections(context.Background())
	require.ErrorIs(t, err, ManualEvaluationRequired)
}

func TestCourseNotVisible(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, `<a class="course-banner-link" href="/course/go-basico/continue">Acceder</a>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	_, err := course.Sections(context.Background())
	require.ErrorIs(t, err, CourseNotVisible)
}

func TestCourseAccessStateFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(landingPage, "/course/go-basico/access"))
	})
	mux.HandleFunc("/course/go-basico/access", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/course/go-basico/task/87010", http.StatusFound)
	})
	mux.HandleFunc("/course/go-basico/task/87010", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(sectionSelect, " selected"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	sections, err := course.Sections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
}

func TestCourseUnsupportedState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(landingPage, "/course/go-basico/somethingNew"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	_, err := course.Sections(context.Background())
	require.ErrorIs(t, err, UnsupportedCourseState)
}

func TestSectionItems(t *testing.T) {
	course := newCourseSite(t, false)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)

	items, err := sections[0].Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	video := items[0].Info()
	// the position label comes off the page verbatim, padding included
	require.Equal(t, "01", video.Index)
	require.Equal(t, "Presentación", video.Title)
	require.Equal(t, ITEM_VIDEO, video.Kind)
	require.True(t, video.Done)
	require.Equal(t, course.client.BaseUrl.String()+"/course/go-basico/task/87011", video.Url)
	require.Equal(t, "87011", items[0].TaskId())
	require.IsType(t, &VideoItem{}, items[0])

	question := items[1].Info()
	require.Equal(t, "02", question.Index)
	require.Equal(t, ITEM_SINGLE_CHOICE, question.Kind)
	require.False(t, question.Done)
	require.IsType(t, &QuestionItem{}, items[1])

	require.Equal(t, ITEM_WHAT_WE_LEARNED, items[2].Info().Kind)
	require.IsType(t, &DocumentItem{}, items[2])

	// cached on the section, no refetch
	again, err := sections[0].Items(ctx)
	require.NoError(t, err)
	require.Equal(t, items, again)
}

func TestSectionItemsUnknownKind(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico/section/111/tasks", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, `<ul class="task-menu-nav-list">
  <li><a href="/course/go-basico/task/87014">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#HOLOGRAM_LECTURE"></use></svg>
    <span class="task-menu-nav-item-title">Novedad</span></a></li>
</ul>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	section := &Section{Index: "01", Title: "Introducción",
		Url: server.URL + "/course/go-basico/section/111/tasks", course: course}

	_, err := section.Items(context.Background())
	require.ErrorIs(t, err, UnknownItemKind)
}

func TestVideoItemContent(t *testing.T) {
	course := newCourseSite(t, false)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	items, err := sections[0].Items(ctx)
	require.NoError(t, err)

	content, err := items[0].GetContent(ctx)
	require.NoError(t, err)
	require.Contains(t, content.Markdown, "# Presentación")
	require.Contains(t, content.Markdown, "Bienvenido al curso.")
	require.Equal(t, "https://cdn.example.com/87011-hd.mp4", content.Videos["hd"].Mp4)
	require.Equal(t, "https://cdn.example.com/87011-sd.mp4", content.Videos["sd"].Mp4)
	require.Nil(t, content.Question)
}

func TestQuestionItemContent(t *testing.T) {
	course := newCourseSite(t, false)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	items, err := sections[0].Items(ctx)
	require.NoError(t, err)

	content, err := items[1].GetContent(ctx)
	require.NoError(t, err)
	require.NotNil(t, content.Question)
	require.True(t, content.Question.IsSingleChoice())
	require.Len(t, content.Question.Answers, 2)

	correct := content.Question.Answers[0]
	require.Equal(t, "42", correct.Id)
	require.Equal(t, "La correcta", correct.Text)
	require.True(t, correct.Correct)
	require.False(t, correct.Selected)

	checked := content.Question.Answers[1]
	require.False(t, checked.Correct)
	require.True(t, checked.Selected)
	require.Equal(t, []string{"43"}, content.Question.SelectedIds())

	content.Question.SelectCorrect()
	require.Equal(t, []string{"42"}, content.Question.SelectedIds())
}

func TestItemContentMissingBlock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico/section/111/tasks", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, taskList)
	})
	mux.HandleFunc("/course/go-basico/task/87011", func(w http.ResponseWriter, r *http.Request) {
		// no task-content block at all
		writePage(w, `<div class="player"></div>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	course := NewCourse(newTestClient(t, server.URL, false), server.URL+"/course/go-basico")
	course.Throttle = NewThrottle(0, 0, 0)
	section := &Section{Index: "01", Title: "Introducción",
		Url: server.URL + "/course/go-basico/section/111/tasks", course: course}

	items, err := section.Items(context.Background())
	require.NoError(t, err)

	_, err = items[0].GetContent(context.Background())
	require.ErrorIs(t, err, ContentNotFound)
}

func TestGetItemOutOfBand(t *testing.T) {
	course := newCourseSite(t, false)

	item, err := course.GetItem(context.Background(),
		course.client.BaseUrl.String()+"/course/go-basico/task/87012")
	require.NoError(t, err)
	require.Equal(t, "87012", item.TaskId())
	require.IsType(t, &QuestionItem{}, item)
}

func TestCachedFetchSkipsThrottle(t *testing.T) {
	course := newCourseSite(t, true)
	ctx := context.Background()

	clock := &fakeClock{}
	course.Throttle = clock.throttle(DefaultMinInterval)

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	items, err := sections[0].Items(ctx)
	require.NoError(t, err)

	first, err := items[2].GetContent(ctx)
	require.NoError(t, err)
	require.False(t, first.Cached)

	// the second fetch hits the cache and must not pace at all, even
	// though the interval hasn't elapsed
	second, err := items[2].GetContent(ctx)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Empty(t, clock.slept)
}
