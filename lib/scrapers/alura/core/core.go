package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"aluraget/lib/httpcache"
	"aluraget/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/alura/core")

const DefaultBaseUrl = "https://app.aluracursos.com"

// the title of the authenticated-only dashboard page, used to detect
// whether the supplied cookies still work
const dashboardTitle = "Dashboard | Alura Latam - Cursos online de tecnologia"

// a realistic browser header set, anything less triggers the
// platform's bot detection on some endpoints
var browserHeaders = map[string]string{
	"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"accept-language":           "es,es-ES;q=0.9,en;q=0.8,en-GB;q=0.7,en-US;q=0.6,es-CO;q=0.5",
	"sec-ch-ua":                 `"Not/A)Brand";v="8", "Chromium";v="126", "Microsoft Edge";v="126"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Windows"`,
	"sec-fetch-dest":            "document",
	"sec-fetch-mode":            "navigate",
	"sec-fetch-site":            "same-origin",
	"sec-fetch-user":            "?1",
	"upgrade-insecure-requests": "1",
	"user-agent":                "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

// Client is the shared session every scraper component is constructed
// with. It owns the cookies, the browser header set and the persistent
// response cache.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	cookies map[string]string
	cache   *httpcache.Cache
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// path to a Netscape or JSON cookie export
	CookiePath string
	// optional persistent response cache
	Cache *httpcache.Cache
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	rawBaseUrl := opts.BaseUrl
	if rawBaseUrl == "" {
		rawBaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(rawBaseUrl)
	if err != nil {
		return nil, err
	}

	raw, err := LoadCookies(opts.CookiePath)
	if err != nil {
		return nil, err
	}
	cookies, err := ParseCookies(raw)
	if err != nil {
		return nil, err
	}
	if len(cookies) == 0 {
		slog.WarnContext(ctx, "required cookies missing from export, requests will be unauthenticated", "path", opts.CookiePath)
	}

	client := resty.New()
	client.SetBaseURL(rawBaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	for name, value := range browserHeaders {
		client.SetHeader(name, value)
	}
	for name, value := range cookies {
		client.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	// transport-level failures are retried, anything that got an http
	// response is not
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second * 2)
	client.SetRetryMaxWaitTime(time.Second * 10)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil
	})

	telemetry.InstrumentResty(client, "scrapers/alura/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		cookies: cookies,
		cache:   opts.Cache,
	}, nil
}

// Authenticated reports whether the cookie export contained all
// required cookies. It says nothing about whether they still work, use
// CheckCookies for that.
func (c *Client) Authenticated() bool {
	return len(c.cookies) > 0
}

// Response is the uniform result of Request. Cached reports whether it
// was served from the persistent cache without touching the network.
type Response struct {
	Url    string
	Status int
	Body   []byte
	Cached bool
}

type RequestOptions struct {
	// marshaled to json when set
	Json any
	// sent as form-urlencoded when set
	FormData map[string]string
}

// Request performs a GET, POST or HEAD against the platform. GETs are
// transparently served from the persistent cache when possible.
func (c *Client) Request(ctx context.Context, method, target string, opts *RequestOptions) (Response, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("client:Request %s", method))
	defer span.End()

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodHead:
	default:
		span.SetStatus(codes.Error, "unsupported method")
		return Response{}, fmt.Errorf("%w: %s", UnsupportedMethod, method)
	}

	full, err := c.BaseUrl.Parse(target)
	if err != nil {
		return Response{}, err
	}

	var body []byte
	if opts != nil && opts.Json != nil {
		body, err = json.Marshal(opts.Json)
		if err != nil {
			return Response{}, err
		}
	}

	cacheable := c.cache != nil && method == http.MethodGet
	key := httpcache.Key(method, full.String(), body)
	if cacheable {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			span.SetStatus(codes.Ok, "CACHE HIT")
			return Response{
				Url:    entry.Url,
				Status: entry.Status,
				Body:   entry.Body,
				Cached: true,
			}, nil
		}
		if err != httpcache.ErrNotFound {
			span.RecordError(err)
			slog.WarnContext(ctx, "response cache read failed", "err", err)
		}
	}

	req := c.Http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if opts != nil && opts.FormData != nil {
		req.SetFormData(opts.FormData)
	}

	res, err := req.Execute(method, full.String())
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return Response{}, err
	}
	if res.StatusCode() >= 400 {
		statusErr := &StatusError{Code: res.StatusCode(), Url: full.String()}
		span.SetStatus(codes.Error, statusErr.Error())
		return Response{}, statusErr
	}

	out := Response{
		Url:    res.Request.URL,
		Status: res.StatusCode(),
		Body:   res.Body(),
	}

	if cacheable && res.StatusCode() < 300 {
		err = c.cache.Put(ctx, key, httpcache.Entry{
			Url:    out.Url,
			Method: method,
			Status: out.Status,
			Body:   out.Body,
		})
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "response cache write failed", "err", err)
		}
	}

	return out, nil
}

// CachedGet reports whether a GET for target would be served from the
// persistent cache. Pacing layers use this to skip waits for requests
// that won't touch the network.
func (c *Client) CachedGet(ctx context.Context, target string) bool {
	if c.cache == nil {
		return false
	}
	full, err := c.BaseUrl.Parse(target)
	if err != nil {
		return false
	}
	_, err = c.cache.Get(ctx, httpcache.Key(http.MethodGet, full.String(), nil))
	return err == nil
}

// ResolveRedirect issues a HEAD request without following redirects
// and returns the location it points at. The enrollment flow encodes
// course state in these redirects.
func (c *Client) ResolveRedirect(ctx context.Context, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:ResolveRedirect")
	defer span.End()

	full, err := c.BaseUrl.Parse(target)
	if err != nil {
		return "", err
	}

	c.Http.SetRedirectPolicy(resty.NoRedirectPolicy())
	defer c.Http.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname()))

	res, err := c.Http.R().SetContext(ctx).Head(full.String())
	if err != nil && res == nil {
		span.SetStatus(codes.Error, "head request failed")
		return "", err
	}

	location := res.Header().Get("Location")
	if location == "" {
		span.SetStatus(codes.Error, "no location header")
		return "", fmt.Errorf("%s did not redirect", full.String())
	}
	resolved, err := c.BaseUrl.Parse(location)
	if err != nil {
		return "", err
	}
	return resolved.String(), nil
}

// FetchRoot requests a page and parses the body as an html tree.
func (c *Client) FetchRoot(ctx context.Context, target string) (*goquery.Document, Response, error) {
	res, err := c.Request(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, Response{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, Response{}, fmt.Errorf("failed to parse html from %s: %w", res.Url, err)
	}
	return doc, res, nil
}

// CheckCookies hits the dashboard and verifies the page title matches
// the authenticated-only dashboard. Anonymous sessions get bounced to
// a login page with a different title.
func (c *Client) CheckCookies(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:CheckCookies")
	defer span.End()

	doc, _, err := c.FetchRoot(ctx, "/dashboard")
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return title == dashboardTitle, nil
}
