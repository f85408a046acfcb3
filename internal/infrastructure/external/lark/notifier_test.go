package lark

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
)

type sentMessage struct {
	receiveIDType, receiveID, msgType, content string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{receiveIDType, receiveID, msgType, content})
	return "om_test", nil
}

var reviewReq = port.ReviewRequest{
	ValidationID:     "val-1",
	ProjectID:        "book-42",
	QualityScore:     61.5,
	Threshold:        70,
	CriticalFindings: 2,
	TotalFindings:    5,
}

func TestReviewNotifierSendsCard(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewReviewNotifier(sender, "", "oc_review", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, n.NotifyReview(context.Background(), reviewReq))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "chat_id", msg.receiveIDType)
	assert.Equal(t, "oc_review", msg.receiveID)
	assert.Equal(t, "interactive", msg.msgType)

	var card map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.content), &card))
	header := card["header"].(map[string]interface{})
	assert.Equal(t, "red", header["template"])
	assert.Contains(t, msg.content, "book-42")
	assert.Contains(t, msg.content, "61.5")
	assert.Contains(t, msg.content, "val-1")
}

func TestReviewCardWithoutCriticalFindings(t *testing.T) {
	req := reviewReq
	req.CriticalFindings = 0
	card := buildReviewCard(req)
	assert.Equal(t, "orange", card["header"].(map[string]interface{})["template"])
}

func TestReviewCardEscapesContent(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewReviewNotifier(sender, "open_id", "ou_1", nil)
	require.NoError(t, err)

	req := reviewReq
	req.ProjectID = "book \"quoted\"\nline"
	require.NoError(t, n.NotifyReview(context.Background(), req))

	var card map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(sender.sent[0].content), &card))
}

func TestReviewNotifierErrors(t *testing.T) {
	_, err := NewReviewNotifier(nil, "", "oc", nil)
	assert.Error(t, err)

	_, err = NewReviewNotifier(&fakeSender{}, "", "", nil)
	assert.Error(t, err)

	boom := errors.New("network down")
	n, err := NewReviewNotifier(&fakeSender{err: boom}, "", "oc", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, n.NotifyReview(context.Background(), reviewReq), boom)
}

func TestClientSendMessage(t *testing.T) {
	var (
		mu       sync.Mutex
		captured map[string]interface{}
		query    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		switch {
		case strings.HasSuffix(r.URL.Path, "/tenant_access_token/internal"):
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`)
		case r.URL.Path == "/open-apis/im/v1/messages":
			mu.Lock()
			query = r.URL.Query().Get("receive_id_type")
			_ = json.NewDecoder(r.Body).Decode(&captured)
			mu.Unlock()
			_, _ = io.WriteString(w, `{"code":0,"msg":"success","data":{"message_id":"om_123"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	id, err := c.SendMessage(context.Background(), "chat_id", "oc_1", "text", `{"text":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "om_123", id)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "chat_id", query)
	assert.Equal(t, "oc_1", captured["receive_id"])
	assert.Equal(t, "text", captured["msg_type"])
}

func TestClientSendMessageAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if strings.HasSuffix(r.URL.Path, "/tenant_access_token/internal") {
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":230001,"msg":"invalid receive_id"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: srv.URL}, nil)
	_, err := c.SendMessage(context.Background(), "chat_id", "bad", "text", `{"text":"hi"}`)
	assert.ErrorContains(t, err, "230001")
}
