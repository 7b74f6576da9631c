package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbot/models"
)

type fakeConversation struct {
	gotID, gotText, gotData string
	err                     error
}

func (f *fakeConversation) Start(ctx context.Context, id string) (models.ChatResponse, error) {
	f.gotID = id
	resp := models.ChatResponse{Stage: "COLLECTING_COUNTRY"}
	resp.Add("hi")
	return resp, f.err
}

func (f *fakeConversation) HandleText(ctx context.Context, id, text string) (models.ChatResponse, error) {
	f.gotID, f.gotText = id, text
	resp := models.ChatResponse{Stage: "COLLECTING_CITY"}
	resp.Add("where from?", models.ChatAction{Label: "Кишинів", Data: "from_city:143"})
	return resp, f.err
}

func (f *fakeConversation) HandleCallback(ctx context.Context, id, data string) (models.ChatResponse, error) {
	f.gotID, f.gotData = id, data
	return models.ChatResponse{Stage: "READY"}, f.err
}

func newRouter(conv Conversation) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(conv)
	r.POST("/chat/:conversationID/start", h.StartHandler)
	r.POST("/chat/:conversationID/messages", h.MessageHandler)
	r.POST("/chat/:conversationID/callbacks", h.CallbackHandler)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMessageHandler(t *testing.T) {
	conv := &fakeConversation{}
	w := post(newRouter(conv), "/chat/42/messages", `{"text":"Туреччина"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COLLECTING_CITY", resp.Stage)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "from_city:143", resp.Messages[0].Actions[0].Data)
	assert.Equal(t, "42", conv.gotID)
	assert.Equal(t, "Туреччина", conv.gotText)
}

func TestMessageHandlerRejectsBadBody(t *testing.T) {
	r := newRouter(&fakeConversation{})
	for _, body := range []string{`{}`, `{"text":"   "}`, `not json`} {
		w := post(r, "/chat/42/messages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCallbackHandler(t *testing.T) {
	conv := &fakeConversation{}
	w := post(newRouter(conv), "/chat/42/callbacks", `{"data":" next_page "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "next_page", conv.gotData)

	w = post(newRouter(conv), "/chat/42/callbacks", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartHandler(t *testing.T) {
	conv := &fakeConversation{}
	w := post(newRouter(conv), "/chat/7/start", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", conv.gotID)
	assert.Contains(t, w.Body.String(), `"stage":"COLLECTING_COUNTRY"`)
}

func TestHandlerStoreFailure(t *testing.T) {
	conv := &fakeConversation{err: errors.New("store down")}
	w := post(newRouter(conv), "/chat/42/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to process message")
}

func TestLogsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "bot.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\n"), 0o644))

	r := gin.New()
	r.GET("/logs", NewLogsHandler(path).DownloadHandler)
	r.GET("/missing", NewLogsHandler(filepath.Join(t.TempDir(), "nope.log")).DownloadHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "line one\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bot.log")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
