package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	goslack "github.com/slack-go/slack"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/news"
)

var testTexts = config.Texts{
	ReportTitle:   "AIニュースレポート",
	SlackIntro:    "学習者の皆さん、最新のAIニュースで知識をアップデートしましょう！",
	PointsHeading: "初学者向けポイント",
	DetailsLabel:  "Notionで詳細を見る",
}

type payload struct {
	Channel string `json:"channel"`
	Blocks  []struct {
		Type string `json:"type"`
		Text struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"text"`
	} `json:"blocks"`
}

func newTestNotifier(url string, m *metrics.Metrics) *Notifier {
	var buf bytes.Buffer
	return NewNotifier(Options{
		WebhookURL:    url,
		Texts:         testTexts,
		OtherCategory: "その他",
		Metrics:       m,
		Logger:        logger.New(&buf, false),
	})
}

func TestSend(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &got); err != nil {
			t.Errorf("payload is not JSON: %v", err)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m := metrics.New()
	msg := Message{
		ReportURL: "https://notion.so/page1",
		Date:      "2023-11-01",
		Closing:   "感想を共有しましょう！",
		Articles: []news.Article{
			{Title: "Sora 2 is here", URL: "https://openai.com/sora-2", Summary: "動画生成", Category: "人工知能", Points: []string{"P1", "P2"}},
			{Title: "Python 3.14", URL: "https://example.com/py", Summary: "GIL", Category: "プログラミング"},
			{Title: "GPT-5", URL: "https://openai.com/gpt-5", Summary: "基盤モデル", Category: "人工知能"},
		},
	}
	if err := newTestNotifier(srv.URL, m).Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if got.Channel != DefaultChannel {
		t.Errorf("channel = %q, want default", got.Channel)
	}

	var texts []string
	for _, b := range got.Blocks {
		texts = append(texts, b.Type+"|"+b.Text.Text)
	}
	want := []string{
		"header|AIニュースレポート - 2023-11-01",
		"section|" + testTexts.SlackIntro,
		"divider|",
		"section|*【人工知能】*",
		"section|*<https://openai.com/sora-2|Sora 2 is here>*\n動画生成",
		"section|*初学者向けポイント:*\n- P1\n- P2",
		"divider|",
		"section|*<https://openai.com/gpt-5|GPT-5>*\n基盤モデル",
		"divider|",
		"section|*【プログラミング】*",
		"section|*<https://example.com/py|Python 3.14>*\nGIL",
		"divider|",
		"section|Notionで詳細を見る: <https://notion.so/page1|AIニュースレポート - 2023-11-01>",
		"section|感想を共有しましょう！",
	}
	if strings.Join(texts, "\n~\n") != strings.Join(want, "\n~\n") {
		t.Errorf("blocks =\n%v\nwant\n%v", texts, want)
	}

	if got := m.GetStats()["notifications_sent"]; got != int64(1) {
		t.Errorf("notifications_sent = %v", got)
	}
}

func TestSendUsesChannel(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	msg := Message{Channel: "#general", Date: "2023-11-01"}
	if err := newTestNotifier(srv.URL, nil).Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if got.Channel != "#general" {
		t.Errorf("channel = %q", got.Channel)
	}
	for _, b := range got.Blocks {
		if strings.Contains(b.Text.Text, "Notion") {
			t.Errorf("report link present without report URL: %q", b.Text.Text)
		}
	}
}

func TestSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	m := metrics.New()
	if err := newTestNotifier(srv.URL, m).Send(context.Background(), Message{Date: "d"}); err == nil {
		t.Fatal("expected error for rejected webhook")
	}
	if got := m.GetStats()["notifications_sent"]; got != int64(0) {
		t.Errorf("notifications_sent = %v", got)
	}
}

func TestSendWithoutWebhook(t *testing.T) {
	n := newTestNotifier("", nil)
	if n.Enabled() {
		t.Error("Enabled() = true without webhook")
	}
	if err := n.Send(context.Background(), Message{}); !config.IsConfigError(err) {
		t.Errorf("Send() error = %v, want configuration error", err)
	}
}

func TestBlocksCapSectionText(t *testing.T) {
	long := strings.Repeat("要", 5000)
	msg := Message{
		Date: "2023-11-01",
		Articles: []news.Article{
			{Title: "Long", URL: "https://example.com/long", Summary: long, Category: "人工知能"},
		},
		Closing: long,
	}

	sections := 0
	for _, b := range newTestNotifier("http://unused", nil).Blocks(msg) {
		s, ok := b.(*goslack.SectionBlock)
		if !ok {
			continue
		}
		sections++
		if n := utf8.RuneCountInString(s.Text.Text); n > maxSectionRunes {
			t.Errorf("section has %d runes, limit %d", n, maxSectionRunes)
		}
	}
	if sections == 0 {
		t.Fatal("no section blocks")
	}

	article := newTestNotifier("http://unused", nil).Blocks(msg)[4].(*goslack.SectionBlock).Text.Text
	if !strings.HasPrefix(article, "*<https://example.com/long|Long>*\n要") || !strings.HasSuffix(article, "…") {
		t.Errorf("article section = %.60q...", article)
	}
}
