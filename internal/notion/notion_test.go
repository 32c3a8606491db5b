package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/news"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []recorded
	database string
	status   int
}

func (f *fakeNotion) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != APIVersion {
			t.Errorf("Notion-Version = %q", got)
		}

		rec := recorded{method: r.Method, path: r.URL.Path}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			fmt.Fprintf(w, `{"object": "error", "status": %d, "code": "validation_error", "message": "bad request"}`, f.status)
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/databases/db1":
			w.Write([]byte(f.database))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			w.Write([]byte(`{"object": "page", "id": "page1", "url": "https://notion.so/page1"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}
}

func (f *fakeNotion) find(method, path string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if r.method == method && r.path == path {
			out = append(out, r)
		}
	}
	return out
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	c, err := NewClient(Options{
		APIKey:     "secret",
		DatabaseID: "db1",
		BaseURL:    srv.URL,
		Properties: config.PropertyNames{Name: "Name", Date: "Date", Status: "Status", Abstract: "Abstract", URL: "URL"},
		Texts: config.Texts{
			ReportTitle:   "AIニュースレポート",
			ReportIntro:   "データサイエンス、データエンジニアリング、データ分析の学習者向けに、AIの最新ニュースを毎日お届けします。",
			PointsHeading: "初学者向けポイント",
		},
		OtherCategory: "その他",
		Logger:        logger.New(&buf, true),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

const completeDatabase = `{"object": "database", "id": "db1", "properties": {
	"Name": {"type": "title"},
	"Date": {"type": "date"},
	"Status": {"type": "status", "status": {"options": [{"name": "Published", "color": "green"}]}},
	"Abstract": {"type": "rich_text"},
	"URL": {"type": "url"}
}}`

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Options{DatabaseID: "db"}); !config.IsConfigError(err) {
		t.Errorf("missing key: err = %v", err)
	}
	if _, err := NewClient(Options{APIKey: "k"}); !config.IsConfigError(err) {
		t.Errorf("missing database: err = %v", err)
	}
	if _, err := NewClient(Options{APIKey: "k", DatabaseID: "db", BaseURL: "not a url"}); !config.IsConfigError(err) {
		t.Errorf("relative base URL: err = %v", err)
	}
}

func TestEnsurePropertiesNoop(t *testing.T) {
	f := &fakeNotion{database: completeDatabase}
	if err := newTestClient(t, f).EnsureProperties(context.Background()); err != nil {
		t.Fatalf("EnsureProperties() error: %v", err)
	}
	if got := f.find(http.MethodPatch, "/v1/databases/db1"); len(got) != 0 {
		t.Errorf("unexpected update call: %+v", got)
	}
}

func TestEnsurePropertiesAddsMissing(t *testing.T) {
	f := &fakeNotion{database: `{"object": "database", "id": "db1", "properties": {
		"Name": {"type": "title"},
		"Date": {"type": "date"},
		"Status": {"type": "status", "status": {"options": [{"name": "Published", "color": "green"}]}},
		"URL": {"type": "url"}
	}}`}
	if err := newTestClient(t, f).EnsureProperties(context.Background()); err != nil {
		t.Fatalf("EnsureProperties() error: %v", err)
	}

	updates := f.find(http.MethodPatch, "/v1/databases/db1")
	if len(updates) != 1 {
		t.Fatalf("got %d update calls, want 1", len(updates))
	}
	props := updates[0].body["properties"].(map[string]any)
	if len(props) != 1 {
		t.Errorf("updated properties = %v, want only Abstract", props)
	}
	abstract, ok := props["Abstract"].(map[string]any)
	if !ok {
		t.Fatalf("Abstract not in update: %v", props)
	}
	if rt, ok := abstract["rich_text"].(map[string]any); !ok || len(rt) != 0 {
		t.Errorf("Abstract config = %v, want empty rich_text object", abstract)
	}
}

func TestEnsurePropertiesAddsPublishedOption(t *testing.T) {
	f := &fakeNotion{database: strings.Replace(completeDatabase,
		`[{"name": "Published", "color": "green"}]`,
		`[{"name": "Draft", "color": "red"}]`, 1)}
	if err := newTestClient(t, f).EnsureProperties(context.Background()); err != nil {
		t.Fatalf("EnsureProperties() error: %v", err)
	}

	updates := f.find(http.MethodPatch, "/v1/databases/db1")
	if len(updates) != 1 {
		t.Fatalf("got %d update calls, want 1", len(updates))
	}
	status := updates[0].body["properties"].(map[string]any)["Status"].(map[string]any)
	options := status["status"].(map[string]any)["options"].([]any)
	if len(options) != 2 {
		t.Fatalf("options = %v, want Draft and Published", options)
	}
	names := map[string]string{}
	for _, o := range options {
		m := o.(map[string]any)
		names[m["name"].(string)] = m["color"].(string)
	}
	if names["Draft"] != "red" || names["Published"] != "green" {
		t.Errorf("options = %v", names)
	}
}

func TestEnsurePropertiesTypeMismatch(t *testing.T) {
	f := &fakeNotion{database: strings.Replace(completeDatabase, `"Date": {"type": "date"}`, `"Date": {"type": "rich_text"}`, 1)}
	err := newTestClient(t, f).EnsureProperties(context.Background())
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("EnsureProperties() error = %v, want ErrSchemaMismatch", err)
	}
	if got := f.find(http.MethodPatch, "/v1/databases/db1"); len(got) != 0 {
		t.Errorf("unexpected update call: %+v", got)
	}
}

func TestEnsurePropertiesAPIError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized} {
		f := &fakeNotion{status: status}
		err := newTestClient(t, f).EnsureProperties(context.Background())
		var apiErr *notionapi.Error
		if !errors.As(err, &apiErr) || apiErr.Status != status {
			t.Errorf("status %d: error = %v", status, err)
		}
	}
}

func sampleArticles() []news.Article {
	return []news.Article{
		{
			Title:    "量子コンピューティングの進展",
			URL:      "https://example.com/quantum",
			Summary:  "量子コンピューティングの最新動向と将来性についての要約。",
			Points:   []string{"ポイント1", "ポイント2", "ポイント3"},
			Category: "テクノロジー",
			ImageURL: "https://example.com/image_quantum.jpg",
		},
		{
			Title:    "AIと倫理的問題",
			URL:      "https://example.com/ai_ethics",
			Summary:  "人工知能の発展に伴う倫理的課題に関する考察。",
			Points:   []string{"ポイントA"},
			Category: "AI",
			ImageURL: "invalid-url",
		},
		{
			Title:   "カテゴリなし",
			URL:     "#",
			Summary: "s",
		},
	}
}

func blockText(b map[string]any) string {
	kind, _ := b["type"].(string)
	body, ok := b[kind].(map[string]any)
	if !ok {
		return ""
	}
	rt, ok := body["rich_text"].([]any)
	if !ok || len(rt) == 0 {
		return ""
	}
	return rt[0].(map[string]any)["text"].(map[string]any)["content"].(string)
}

func TestCreateReportPage(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	pageURL, err := c.CreateReportPage(context.Background(), sampleArticles(), "https://example.com/mock_cover.jpg", "2023-11-01")
	if err != nil {
		t.Fatalf("CreateReportPage() error: %v", err)
	}
	if pageURL != "https://notion.so/page1" {
		t.Errorf("page URL = %q", pageURL)
	}

	creates := f.find(http.MethodPost, "/v1/pages")
	if len(creates) != 1 {
		t.Fatalf("got %d create calls, want 1", len(creates))
	}
	body := creates[0].body

	if got := body["parent"].(map[string]any)["database_id"]; got != "db1" {
		t.Errorf("parent database = %v", got)
	}
	props := body["properties"].(map[string]any)
	title := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if title != "AIニュースレポート - 2023-11-01" {
		t.Errorf("title = %v", title)
	}
	if got, _ := props["Date"].(map[string]any)["date"].(map[string]any)["start"].(string); !strings.HasPrefix(got, "2023-11-01") {
		t.Errorf("date = %v", got)
	}
	if got := props["Status"].(map[string]any)["status"].(map[string]any)["name"]; got != "Published" {
		t.Errorf("status = %v", got)
	}

	cover := body["cover"].(map[string]any)
	if cover["type"] != "external" || cover["external"].(map[string]any)["url"] != "https://example.com/mock_cover.jpg" {
		t.Errorf("cover = %v", cover)
	}

	children := body["children"].([]any)
	first := children[0].(map[string]any)
	if first["type"] != "paragraph" || !strings.HasPrefix(blockText(first), "データサイエンス") {
		t.Errorf("first block = %v", first)
	}
	if children[1].(map[string]any)["type"] != "divider" {
		t.Errorf("second block = %v", children[1])
	}

	var headings2, headings3 []string
	images := 0
	for _, raw := range children {
		b := raw.(map[string]any)
		switch b["type"] {
		case "heading_2":
			headings2 = append(headings2, blockText(b))
		case "heading_3":
			headings3 = append(headings3, blockText(b))
		case "image":
			images++
		}
	}
	if want := []string{"【テクノロジー】", "【AI】", "【その他】"}; strings.Join(headings2, ",") != strings.Join(want, ",") {
		t.Errorf("category headings = %v, want %v", headings2, want)
	}
	if len(headings3) != 3 || headings3[0] != "量子コンピューティングの進展" {
		t.Errorf("article headings = %v", headings3)
	}
	if images != 1 {
		t.Errorf("got %d image blocks, want 1 (invalid URL skipped)", images)
	}
}

func TestCreateReportPageEmpty(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	for _, cover := range []string{"", "invalid-unsplash-url"} {
		if _, err := c.CreateReportPage(context.Background(), nil, cover, "2023-11-01"); err != nil {
			t.Fatalf("CreateReportPage() error: %v", err)
		}
	}

	creates := f.find(http.MethodPost, "/v1/pages")
	if len(creates) != 2 {
		t.Fatalf("got %d create calls, want 2", len(creates))
	}
	for _, c := range creates {
		if _, ok := c.body["cover"]; ok {
			t.Errorf("cover set for invalid URL: %v", c.body["cover"])
		}
		if children := c.body["children"].([]any); len(children) != 2 {
			t.Errorf("got %d children, want intro and divider", len(children))
		}
	}
}

func TestCreateReportPageBatchesBlocks(t *testing.T) {
	var articles []news.Article
	for i := 0; i < 40; i++ {
		articles = append(articles, news.Article{
			Title:    fmt.Sprintf("Article %d", i),
			URL:      fmt.Sprintf("https://example.com/%d", i),
			Summary:  "summary",
			Category: "人工知能",
			Points:   []string{"a", "b", "c"},
		})
	}
	// 2 intro blocks + 1 heading + 40 * (heading, summary, points label, 3 points, divider)
	wantBlocks := 2 + 1 + 40*7

	f := &fakeNotion{}
	if _, err := newTestClient(t, f).CreateReportPage(context.Background(), articles, "", "2023-11-01"); err != nil {
		t.Fatalf("CreateReportPage() error: %v", err)
	}

	total := 0
	create := f.find(http.MethodPost, "/v1/pages")[0]
	n := len(create.body["children"].([]any))
	if n != maxBlocksPerRequest {
		t.Errorf("create call carried %d blocks, want %d", n, maxBlocksPerRequest)
	}
	total += n

	appends := f.find(http.MethodPatch, "/v1/blocks/page1/children")
	for _, a := range appends {
		n := len(a.body["children"].([]any))
		if n > maxBlocksPerRequest {
			t.Errorf("append carried %d blocks", n)
		}
		total += n
	}
	if total != wantBlocks {
		t.Errorf("sent %d blocks in total, want %d", total, wantBlocks)
	}
	if len(appends) != 2 {
		t.Errorf("got %d append calls, want 2", len(appends))
	}
}

func TestCreateReportPageAPIError(t *testing.T) {
	f := &fakeNotion{status: http.StatusInternalServerError}
	url, err := newTestClient(t, f).CreateReportPage(context.Background(), sampleArticles(), "", "2023-11-01")
	if err == nil {
		t.Fatal("expected error")
	}
	if url != "" {
		t.Errorf("url = %q, want empty", url)
	}
}

func TestValidURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.jpg": true,
		"http://example.com":        true,
		"":                          false,
		"#":                         false,
		"invalid-url":               false,
		"ftp://example.com/a.jpg":   false,
		"https://":                  false,
	}
	for in, want := range tests {
		if got := validURL(in); got != want {
			t.Errorf("validURL(%q) = %v, want %v", in, got, want)
		}
	}
}
