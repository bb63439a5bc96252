package rest

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/api/dto"
	"Nocturne/internal/pkg/security"
	"Nocturne/internal/service"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, message string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal envelope data: %v", err)
		}
		raw = b
	}
	resp, err := json.Marshal(dto.Envelope{Code: code, Message: message, Data: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.APIConfig{BaseURL: baseURL, Timeout: 5}, security.NewSession("tok"))
}

func TestGetConversationsSendsBearer(t *testing.T) {
	var gotAuth, gotAccount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.URL.Query().Get("account_id")
		writeEnvelope(t, w, 200, "success", []dto.ConversationDTO{
			{ID: "c1", Type: "direct", Participants: []dto.ParticipantDTO{{EntityID: "ent_a"}}},
		})
	}))
	defer srv.Close()

	convs, err := newTestClient(srv.URL).GetConversations(context.Background(), "ent_self")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotAccount != "ent_self" {
		t.Fatalf("account_id = %q", gotAccount)
	}
	if len(convs) != 1 || convs[0].ID != "c1" {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
}

func TestNoCredentialShortCircuits(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(t, w, 200, "success", nil)
	}))
	defer srv.Close()

	client := NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 5}, security.NewSession(""))
	ctx := context.Background()

	if convs, err := client.GetConversations(ctx, "ent_self"); err != nil || convs != nil {
		t.Fatalf("expected empty short-circuit, got %v, %v", convs, err)
	}
	if page, err := client.GetMessages(ctx, "c1", 50, nil); err != nil || len(page.Data) != 0 {
		t.Fatalf("expected empty page short-circuit, got %v, %v", page, err)
	}
	if err := client.SendMessage(ctx, "c1", &dto.SendMessageReq{Content: "hi"}); err != nil {
		t.Fatalf("send without credential must be a silent no-op, got %v", err)
	}
	if err := client.MarkMessagesRead(ctx, "c1", "ent_self", nil); err != nil {
		t.Fatalf("mark read without credential must be a silent no-op, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("no credential must mean no network calls, got %d", n)
	}
}

func TestBusinessConflictMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, 400, "cannot mark own message as read", nil)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).MarkMessagesRead(context.Background(), "c1", "ent_self", nil)
	if !errors.Is(err, service.ErrMarkOwnMessage) {
		t.Fatalf("expected ErrMarkOwnMessage, got %v", err)
	}
}

func TestGetMessagesQueryAndPagination(t *testing.T) {
	var gotLimit, gotBefore string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotBefore = r.URL.Query().Get("before")
		writeEnvelope(t, w, 200, "success", dto.MessagePageDTO{
			Data: []dto.MessageDTO{{
				ID:             "m1",
				ConversationID: "c1",
				CreatedAt:      time.Unix(10, 0),
			}},
			Pagination: &dto.PaginationDTO{HasMore: true},
		})
	}))
	defer srv.Close()

	before := time.Unix(100, 0).UTC()
	page, err := newTestClient(srv.URL).GetMessages(context.Background(), "c1", 25, &before)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "25" {
		t.Fatalf("limit = %q, want 25", gotLimit)
	}
	if gotBefore == "" {
		t.Fatal("before cursor missing from query")
	}
	if len(page.Data) != 1 || page.Pagination == nil || !page.Pagination.HasMore {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestMarkReadBodyCarriesNullMarker(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		writeEnvelope(t, w, 200, "success", nil)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).MarkMessagesRead(context.Background(), "c1", "ent_self", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["reader_id"] != "ent_self" {
		t.Fatalf("reader_id = %v", body["reader_id"])
	}
	if marker, ok := body["last_read_message_id"]; !ok || marker != nil {
		t.Fatalf("null marker must be serialized, got %v (present=%v)", marker, ok)
	}
}

func TestGetProfileByEntityID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/entities/ent_a/profile" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		writeEnvelope(t, w, 200, "success", dto.ProfileResp{
			Success: true,
			Data:    &dto.ProfileDTO{EntityID: "ent_a", DisplayName: "Bar Luna"},
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).GetProfileByEntityID(context.Background(), "ent_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Data == nil || resp.Data.DisplayName != "Bar Luna" {
		t.Fatalf("unexpected profile response: %+v", resp)
	}
}

func TestUnexpectedHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).GetConversations(context.Background(), "ent_self"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
