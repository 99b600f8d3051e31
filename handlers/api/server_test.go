package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nijaru/vi-transcript/config"
	"github.com/nijaru/vi-transcript/indexer"
	"github.com/nijaru/vi-transcript/services/summary"
	"github.com/nijaru/vi-transcript/services/video"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	viLocation = "trial"
	viAccount  = "acc-1"
	viToken    = "token-xyz"
	viVideoID  = "3f2a9c1b"
)

type fakeIndexer struct {
	tokenHits  atomic.Int32
	submitHits atomic.Int32
	indexHits  atomic.Int32
	// processedAfter is the number of index calls answered with Processing.
	processedAfter int32
	missing        bool
	lastSubmit     atomic.Value
}

func (f *fakeIndexer) hits() int32 {
	return f.tokenHits.Load() + f.submitHits.Load() + f.indexHits.Load()
}

func (f *fakeIndexer) handler() http.Handler {
	accounts := "/" + viLocation + "/Accounts/" + viAccount
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Auth"+accounts+"/AccessToken", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"` + viToken + `"`))
	})
	mux.HandleFunc("POST "+accounts+"/Videos", func(w http.ResponseWriter, r *http.Request) {
		f.submitHits.Add(1)
		f.lastSubmit.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + viVideoID + `","state":"Uploaded"}`))
	})
	mux.HandleFunc("GET "+accounts+"/Videos/{id}/Index", func(w http.ResponseWriter, r *http.Request) {
		n := f.indexHits.Add(1)
		if f.missing || r.PathValue("id") != viVideoID {
			http.Error(w, `{"ErrorType":"VIDEO_NOT_FOUND"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if n <= f.processedAfter {
			_, _ = w.Write([]byte(`{"state":"Processing","videos":[{"state":"Processing"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"state":"Processed","videos":[{"insights":{"transcript":[
			{"id":1,"text":"Selamat pagi"},
			{"id":2,"text":"semuanya <3"}
		]}}]}`))
	})
	return mux
}

type testEnv struct {
	server  http.Handler
	indexer *fakeIndexer
	llmHits *atomic.Int32
	llmBody *atomic.Value
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T, fake *fakeIndexer, extra map[string]string) *testEnv {
	t.Helper()

	viSrv := httptest.NewServer(fake.handler())
	t.Cleanup(viSrv.Close)

	var llmHits atomic.Int32
	var llmBody atomic.Value
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		llmHits.Add(1)
		body, _ := io.ReadAll(r.Body)
		llmBody.Store(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Ringkasan."}}]}`))
	}))
	t.Cleanup(llmSrv.Close)

	environ := map[string]string{
		"VIDEO_INDEXER_API_URL":          viSrv.URL,
		"VIDEO_INDEXER_SUBSCRIPTION_KEY": "sub-key",
		"VIDEO_INDEXER_ACCOUNT_ID":       viAccount,
		"VIDEO_INDEXER_LOCATION":         viLocation,
		"VIDEO_INDEXER_POLL_INTERVAL":    "5ms",
		"VIDEO_INDEXER_POLL_TIMEOUT":     "5s",
		"OPENAI_API_KEY":                 "sk-test",
		"OPENAI_BASE_URL":                llmSrv.URL + "/",
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.Parse(environ)
	require.NoError(t, err)

	logger := quietLogger()
	idx := indexer.New(cfg.Indexer, indexer.WithLogger(logger))
	videoSvc := video.NewService(idx, video.WithLogger(logger))
	summarySvc := summary.NewService(
		summary.NewClient(cfg.OpenAI),
		summary.Config{Model: cfg.OpenAI.Model, Temperature: cfg.OpenAI.Temperature},
		logger,
	)

	srv := NewServer(cfg, WithServices(videoSvc, summarySvc), WithLogger(logger))
	return &testEnv{server: srv.Handler(), indexer: fake, llmHits: &llmHits, llmBody: &llmBody}
}

func (e *testEnv) do(method, target string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, httptest.NewRequest(method, target, reader))
	return rr
}

func TestSendVideo(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, nil)

	rr := env.do(http.MethodGet, "/api/send-video?video_url=https%3A%2F%2Fcdn.example%2Fa.mp4&video_name=clip", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, viVideoID, rr.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, env.indexer.tokenHits.Load())
	assert.EqualValues(t, 1, env.indexer.submitHits.Load())
	assert.Zero(t, env.indexer.indexHits.Load())

	query := env.indexer.lastSubmit.Load().(url.Values)
	assert.Equal(t, "https://cdn.example/a.mp4", query.Get("videoUrl"))
	assert.Equal(t, "clip", query.Get("name"))
	assert.Equal(t, viToken, query.Get("accessToken"))
}

func TestGetTranscript(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{processedAfter: 2}, nil)

	rr := env.do(http.MethodPost, "/api/get-transcript?video_url=https%3A%2F%2Fcdn.example%2Fa.mp4&video_name=clip", "")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"transcript":["Selamat pagi","semuanya <3"]}`, rr.Body.String())
	assert.EqualValues(t, 1, env.indexer.tokenHits.Load())
	assert.EqualValues(t, 1, env.indexer.submitHits.Load())
	// two Processing polls, one Processed poll, one fetch
	assert.EqualValues(t, 4, env.indexer.indexHits.Load())
}

func TestFetchTranscript(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, nil)

	rr := env.do(http.MethodGet, "/api/fetch-transcript?video_id="+viVideoID, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		Transcript []string `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, []string{"Selamat pagi", "semuanya <3"}, got.Transcript)
}

func TestFetchTranscriptNotFound(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{missing: true}, nil)

	rr := env.do(http.MethodGet, "/api/fetch-transcript?video_id=nope", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, video.MsgNotFound, rr.Body.String())
}

func TestMissingParametersSkipProvider(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   string
	}{
		{"send-video no params", http.MethodGet, "/api/send-video", "", video.MsgMissingVideoParams},
		{"send-video no name", http.MethodPost, "/api/send-video?video_url=u", "", video.MsgMissingVideoParams},
		{"get-transcript no url", http.MethodGet, "/api/get-transcript?video_name=n", "", video.MsgMissingVideoParams},
		{"fetch-transcript no id", http.MethodGet, "/api/fetch-transcript", "", video.MsgMissingVideoID},
		{"summary no prompt", http.MethodPost, "/api/Get-Summary", "some text", summary.MsgMissingInput},
		{"summary no body", http.MethodPost, "/api/Get-Summary?prompt=Ringkas", "", summary.MsgMissingInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeIndexer{}, nil)

			rr := env.do(tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.want, rr.Body.String())
			assert.Zero(t, env.indexer.hits())
			assert.Zero(t, env.llmHits.Load())
		})
	}
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, nil)

	rr := env.do(http.MethodPost, "/api/Get-Summary?prompt=Ringkas", "Selamat pagi semuanya")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ringkasan.", rr.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, env.llmHits.Load())

	var sent struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.llmBody.Load().(string)), &sent))
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "Ringkas:\nSelamat pagi semuanya", sent.Messages[0].Content)
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodDelete, "/api/send-video?video_url=u&video_name=n"},
		{http.MethodPut, "/api/get-transcript?video_url=u&video_name=n"},
		{http.MethodPatch, "/api/fetch-transcript?video_id=" + viVideoID},
		{http.MethodPut, "/api/Get-Summary?prompt=Ringkas"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			env := newTestEnv(t, &fakeIndexer{}, nil)

			rr := env.do(tt.method, tt.target, "")

			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, "Method "+tt.method+" not allowed", rr.Body.String())
			assert.Zero(t, env.indexer.hits())
			assert.Zero(t, env.llmHits.Load())
		})
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, nil)

	rr := env.do(http.MethodGet, "/api/get-summary", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, map[string]string{"API_KEY": "s3cret"})

	rr := env.do(http.MethodGet, "/api/send-video?video_url=u&video_name=n", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Zero(t, env.indexer.hits())

	rr = env.do(http.MethodGet, "/api/send-video?video_url=u&video_name=n&code=s3cret", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, viVideoID, rr.Body.String())

	rr = env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeIndexer{}, map[string]string{"VERSION": "2.1.0"})

	rr := env.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "2.1.0", got["version"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
