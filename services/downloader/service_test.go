package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/scrapers/alura/view"
	"aluraget/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const cookieFixture = ".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\tSESSION\tabc123\n" +
	".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\tcaelum.login.token\ttok456\n" +
	".aluracursos.com\tTRUE\t/\tTRUE\t1767225600\talura.userId\t789\n"

const landingPage = `<nav class="course-banner-breadcrumb">
  <a href="/courses">Cursos</a>
  <a href="/courses/programacion">Programación</a>
</nav>
<a class="course-banner-link" data-course-workload="8h" href="/course/go-basico/continue">Acceder</a>`

const tasksPage = `<select class="task-menu-sections-select"
  onchange="window.location.href='/course/go-basico/section/'+this.value+'/tasks'">
  <option value="">Secciones</option>
  <option value="111">01. Introducción</option>
</select>
<ul class="task-menu-nav-list">
  <li><a href="/course/go-basico/task/87011">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#VIDEO"></use></svg>
    <span class="task-menu-nav-item-number">01</span>
    <span class="task-menu-nav-item-title">Presentación</span></a></li>
  <li><a href="/course/go-basico/task/87012">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#SINGLE_CHOICE"></use></svg>
    <span class="task-menu-nav-item-number">02</span>
    <span class="task-menu-nav-item-title">Para practicar</span></a></li>
  <li><a href="/course/go-basico/task/87013">
    <svg class="task-menu-nav-item-svg"><use xlink:href="#WHAT_WE_LEARNED"></use></svg>
    <span class="task-menu-nav-item-number">03</span>
    <span class="task-menu-nav-item-title">Lo que aprendimos</span></a></li>
</ul>`

type fixtureSite struct {
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func (f *fixtureSite) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newFixtureSite(t *testing.T) *fixtureSite {
	site := &fixtureSite{hits: map[string]int{}}

	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("content-type", "text/html")
			w.Write([]byte("<html><body>" + body + "</body></html>"))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/course/go-basico", page(landingPage))
	mux.HandleFunc("/course/go-basico/continue", page(tasksPage))
	mux.HandleFunc("/course/go-basico/section/111/tasks", page(tasksPage))
	mux.HandleFunc("/course/go-basico/task/87011", page(tasksPage+
		`<section id="task-content"><h1>Presentación</h1></section>`))
	mux.HandleFunc("/course/go-basico/task/87011/video", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprintf(w, `[{"quality":"hd","mp4":"%s/media/87011-hd.mp4"}]`, site.server.URL)
	})
	mux.HandleFunc("/media/87011-hd.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "video/mp4")
		w.Write([]byte("fake mp4 payload"))
	})
	mux.HandleFunc("/course/go-basico/task/87012", page(tasksPage+
		`<section id="task-content"><p>¿Cuál es la declaración correcta?</p></section>
<div class="container"><form action="/answer"><ul>
  <li data-alternative-id="42" data-correct="true"><p>La correcta</p></li>
</ul></form></div>`))
	mux.HandleFunc("/course/go-basico/task/87013", page(tasksPage+
		`<section id="task-content"><h2>Lo que aprendimos</h2><p>Resumen de la clase.</p></section>`))

	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.hits[r.URL.Path]++
		site.mu.Unlock()
		mux.ServeHTTP(w, r)
	})

	site.server = httptest.NewServer(counted)
	t.Cleanup(site.server.Close)
	return site
}

func newTestService(t *testing.T, site *fixtureSite) (Service, *view.Course) {
	cleanup := telemetry.SetupForTesting(t, "test:downloader")
	t.Cleanup(cleanup)

	cookiePath := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookiePath, []byte(cookieFixture), 0o644))

	client, err := core.NewClient(context.Background(), core.ClientOptions{
		BaseUrl:    site.server.URL,
		CookiePath: cookiePath,
	})
	require.NoError(t, err)

	course := view.NewCourse(client, site.server.URL+"/course/go-basico")
	course.Throttle = view.NewThrottle(0, 0, 0)

	service := NewService(client, t.TempDir())
	service.newThrottle = func() *view.Throttle { return view.NewThrottle(0, 0, 0) }
	return service, course
}

func TestDownloadCourseLayout(t *testing.T) {
	site := newFixtureSite(t)
	service, course := newTestService(t, site)

	err := service.DownloadCourse(context.Background(), course)
	require.NoError(t, err)

	sectionDir := filepath.Join(service.baseDir,
		"programacion", "go-basico", "01-introduccion")

	video, err := os.ReadFile(filepath.Join(sectionDir, "01-presentacion.mp4"))
	require.NoError(t, err)
	require.Equal(t, "fake mp4 payload", string(video))

	doc, err := os.ReadFile(filepath.Join(sectionDir, "03-lo-que-aprendimos.md"))
	require.NoError(t, err)
	require.Contains(t, string(doc), "## Lo que aprendimos")
	require.Contains(t, string(doc), "Resumen de la clase.")

	// the question item gets its statement as markdown
	question, err := os.ReadFile(filepath.Join(sectionDir, "02-para-practicar.md"))
	require.NoError(t, err)
	require.Contains(t, string(question), "¿Cuál es la declaración correcta?")

	entries, err := os.ReadDir(sectionDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestDownloadItemIdempotent(t *testing.T) {
	site := newFixtureSite(t)
	service, course := newTestService(t, site)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	items, err := sections[0].Items(ctx)
	require.NoError(t, err)

	path, err := service.DownloadItem(ctx, items[2])
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, 1, site.hitCount("/course/go-basico/task/87013"))

	// second run must not refetch
	again, err := service.DownloadItem(ctx, items[2])
	require.NoError(t, err)
	require.Equal(t, path, again)
	require.Equal(t, 1, site.hitCount("/course/go-basico/task/87013"))
}

func TestDownloadItemQuestionMarkdown(t *testing.T) {
	site := newFixtureSite(t)
	service, course := newTestService(t, site)
	ctx := context.Background()

	sections, err := course.Sections(ctx)
	require.NoError(t, err)
	items, err := sections[0].Items(ctx)
	require.NoError(t, err)

	path, err := service.DownloadItem(ctx, items[1])
	require.NoError(t, err)
	require.Equal(t, "02-para-practicar.md", filepath.Base(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "¿Cuál es la declaración correcta?")
}

func TestDownloadListRecordsHistory(t *testing.T) {
	site := newFixtureSite(t)
	service, _ := newTestService(t, site)
	ctx := context.Background()

	// the same course twice in one list downloads once
	url := site.server.URL + "/course/go-basico/task/87011"
	err := service.DownloadList(ctx, []string{url, url})
	require.NoError(t, err)
	require.Equal(t, 1, site.hitCount("/course/go-basico"))

	history, err := service.LoadHistory()
	require.NoError(t, err)
	require.Equal(t, []string{site.server.URL + "/course/go-basico"}, history.Urls())

	// a rerun skips it entirely
	err = service.DownloadList(ctx, []string{url})
	require.NoError(t, err)
	require.Equal(t, 1, site.hitCount("/course/go-basico"))
}
