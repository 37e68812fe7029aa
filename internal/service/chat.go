package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/log"
	"github.com/plune/chzzk-clip/internal/pkg/timeutil"
)

const (
	chatEndpoint = "https://api.chzzk.naver.com/service/v1/videos/%s/chats"

	chatPageSize = 50
	maxChatPages = 1000

	donationTypeCode = 10
)

// ChatCollector pages through a VOD's chat history across a time window,
// deduplicates and orders the messages, and rebases their display timestamps
// to the window start. Chat is best-effort enrichment: any failure truncates
// pagination and returns whatever was accumulated, never an error.
type ChatCollector struct {
	client    *http.Client
	endpoint  string
	pageDelay time.Duration
}

func NewChatCollector() *ChatCollector {
	return &ChatCollector{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoint:  chatEndpoint,
		pageDelay: 300 * time.Millisecond,
	}
}

func (c *ChatCollector) Collect(ctx context.Context, videoNo string, cred *models.Credential, window models.ChatWindow) []models.ChatMessage {
	var (
		collected []models.ChatMessage
		cursor    = window.StartMillis()
		base      = window.StartMillis()
		parser    fastjson.Parser
	)

	for page := 0; page < maxChatPages; page++ {
		body, ok := c.fetchPage(ctx, videoNo, cred, cursor)
		if !ok {
			break
		}

		json, err := parser.ParseBytes(body)
		if err != nil || json.GetInt("code") != 200 {
			break
		}

		content := json.Get("content")
		if content == nil {
			break
		}

		// Page order matters: "previous" messages come before "current".
		batch := append(content.GetArray("previousVideoChats"), content.GetArray("videoChats")...)
		if len(batch) == 0 {
			break
		}

		for _, item := range batch {
			ts := item.GetInt64("playerMessageTime")
			if !window.Contains(ts) {
				continue
			}
			collected = append(collected, renderChatMessage(item, ts, base))
		}

		// The cursor must strictly increase and stay inside the window;
		// anything else is the protocol's end-of-stream signal.
		next := content.Get("nextPlayerMessageTime")
		if next == nil || next.Type() == fastjson.TypeNull {
			break
		}
		nextCursor, err := next.Int64()
		if err != nil || nextCursor <= cursor {
			break
		}
		if window.End != nil && nextCursor > *window.End {
			break
		}
		cursor = nextCursor

		select {
		case <-ctx.Done():
			return finalizeChat(collected)
		case <-time.After(c.pageDelay):
		}
	}

	return finalizeChat(collected)
}

func (c *ChatCollector) fetchPage(ctx context.Context, videoNo string, cred *models.Credential, cursor int64) ([]byte, bool) {
	params := url.Values{}
	params.Set("playerMessageTime", strconv.FormatInt(cursor, 10))
	params.Set("previousVideoChatSize", strconv.Itoa(chatPageSize))

	pageURL := fmt.Sprintf(c.endpoint, videoNo) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", fmt.Sprintf("%svideo/%s", siteReferer, videoNo))
	if cred != nil {
		req.Header.Set("Cookie", cred.Header())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Logger.Warnw("chat page request failed, truncating collection", "cursor", cursor, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Logger.Warnw("chat page returned non-200, truncating collection", "cursor", cursor, "status", resp.StatusCode)
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}

	return body, true
}

// renderChatMessage formats one chat item with its rebased timestamp. A
// payload that fails to parse becomes a sentinel error line instead of being
// dropped, preserving position and count for the caller.
func renderChatMessage(item *fastjson.Value, ts, base int64) models.ChatMessage {
	rebased := ts - base
	if rebased < 0 {
		rebased = 0
	}
	prefix := timeutil.FormatMillis(rebased)

	nickname := "Unknown"
	if profileRaw := item.GetStringBytes("profile"); len(profileRaw) > 0 {
		profile, err := new(fastjson.Parser).ParseBytes(profileRaw)
		if err != nil {
			return models.ChatMessage{
				Timestamp: ts,
				Display:   fmt.Sprintf("%s [ERROR] failed to parse chat payload: %v", prefix, err),
			}
		}
		if n := profile.GetStringBytes("nickname"); len(n) > 0 {
			nickname = string(n)
		}
	}

	content := string(item.GetStringBytes("content"))

	display := fmt.Sprintf("%s [%s] : %s", prefix, nickname, content)
	if item.GetInt("messageTypeCode") == donationTypeCode {
		display = fmt.Sprintf("%s [donation] [%s] : %s", prefix, nickname, content)
	}

	return models.ChatMessage{Timestamp: ts, Display: display}
}

// finalizeChat deduplicates by exact (timestamp, display) pair and sorts
// ascending by timestamp.
func finalizeChat(collected []models.ChatMessage) []models.ChatMessage {
	type key struct {
		ts      int64
		display string
	}

	seen := make(map[key]struct{}, len(collected))
	unique := collected[:0]
	for _, msg := range collected {
		k := key{msg.Timestamp, msg.Display}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, msg)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Timestamp < unique[j].Timestamp
	})

	return unique
}
