package slack

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/jobyard/internal/notify"
)

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

type mockSlackClient struct {
	mu      sync.Mutex
	posted  []postedMessage
	errs    []error // returned in order, then nil
	attempt int
}

func (m *mockSlackClient) PostMessageContext(_ context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", "", err
		}
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{ChannelID: "C1"}); err == nil || !strings.Contains(err.Error(), "bot token") {
		t.Errorf("err = %v, want bot token error", err)
	}
	if _, err := New(Opts{BotToken: "xoxb-1"}); err == nil || !strings.Contains(err.Error(), "channel ID") {
		t.Errorf("err = %v, want channel error", err)
	}
	if _, err := New(Opts{BotToken: "xoxb-1", ChannelID: "C1"}); err != nil {
		t.Errorf("real client: %v", err)
	}
}

func TestNotify_PostsToChannel(t *testing.T) {
	mock := &mockSlackClient{}
	n, err := New(Opts{ChannelID: "C_MATCHES", Client: mock})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(context.Background(), notify.NewMatchEvent(1, 2, 3, "python", "", "")); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mock.posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(mock.posted))
	}
	if mock.posted[0].channelID != "C_MATCHES" {
		t.Errorf("channel = %q", mock.posted[0].channelID)
	}
	if len(mock.posted[0].options) != 2 {
		t.Errorf("options = %d, want attachment and text", len(mock.posted[0].options))
	}
}

func TestNotify_RetriesOnRateLimit(t *testing.T) {
	mock := &mockSlackClient{errs: []error{&slackapi.RateLimitedError{RetryAfter: time.Millisecond}}}
	n, _ := New(Opts{ChannelID: "C1", Client: mock})
	if err := n.Notify(context.Background(), notify.Event{}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if mock.attempt != 2 || len(mock.posted) != 1 {
		t.Errorf("attempts/posted = %d/%d, want 2/1", mock.attempt, len(mock.posted))
	}
}

func TestNotify_OtherErrorNotRetried(t *testing.T) {
	mock := &mockSlackClient{errs: []error{errors.New("channel_not_found")}}
	n, _ := New(Opts{ChannelID: "C1", Client: mock})
	err := n.Notify(context.Background(), notify.Event{})
	if err == nil || !strings.Contains(err.Error(), "slack: post message: channel_not_found") {
		t.Errorf("err = %v", err)
	}
	if mock.attempt != 1 {
		t.Errorf("attempts = %d, want 1", mock.attempt)
	}
}

func TestNotify_RateLimitHonorsContext(t *testing.T) {
	mock := &mockSlackClient{errs: []error{&slackapi.RateLimitedError{RetryAfter: time.Hour}}}
	n, _ := New(Opts{ChannelID: "C1", Client: mock})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := n.Notify(ctx, notify.Event{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
