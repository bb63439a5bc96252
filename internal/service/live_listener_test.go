package service

import (
	"Nocturne/internal/api/dto"
	"Nocturne/internal/model"
	"Nocturne/internal/pkg/consts"
	"Nocturne/internal/pkg/ws"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
)

type fakeEventSource struct {
	mu       sync.Mutex
	handlers map[string]map[uint64]ws.Handler
	nextID   uint64
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{handlers: make(map[string]map[uint64]ws.Handler)}
}

func (s *fakeEventSource) On(event string, h ws.Handler) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[uint64]ws.Handler)
	}
	s.handlers[event][s.nextID] = h
	return s.nextID
}

func (s *fakeEventSource) Off(event string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers[event], id)
}

func (s *fakeEventSource) emit(t *testing.T, event string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	s.mu.Lock()
	hs := make([]ws.Handler, 0, len(s.handlers[event]))
	for _, h := range s.handlers[event] {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func (s *fakeEventSource) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[event])
}

type stubConversationService struct {
	reloads atomic.Int64
}

func (s *stubConversationService) LoadConversations(ctx context.Context)  {}
func (s *stubConversationService) Refresh(ctx context.Context)            {}
func (s *stubConversationService) ScheduleReload()                        { s.reloads.Add(1) }
func (s *stubConversationService) Conversations() []model.Conversation   { return nil }
func (s *stubConversationService) Profiles() map[string]model.Profile    { return nil }
func (s *stubConversationService) Loading() bool                         { return false }
func (s *stubConversationService) Refreshing() bool                      { return false }
func (s *stubConversationService) Close()                                {}
func (s *stubConversationService) CreateOrGet(ctx context.Context, targetEntityID string) (*model.Conversation, error) {
	return nil, nil
}

func TestListenerToleratesNilSource(t *testing.T) {
	listener := NewLiveListener(nil, &stubConversationService{})
	listener.Close() // 不应 panic
}

func TestListenerInstallsBothSubscriptions(t *testing.T) {
	source := newFakeEventSource()
	listener := NewLiveListener(source, &stubConversationService{})
	defer listener.Close()

	if source.count(consts.EventNewMessage) != 1 || source.count(consts.EventMessagesRead) != 1 {
		t.Fatal("both event subscriptions must be installed")
	}
}

func TestNewMessageForBoundConversationAppends(t *testing.T) {
	source := newFakeEventSource()
	convs := &stubConversationService{}
	listener := NewLiveListener(source, convs)
	defer listener.Close()

	api := &fakeMessageAPI{}
	ms := NewMessageService(api, testSession(), testConvID, 0)
	listener.Bind(testConvID, ms)

	source.emit(t, consts.EventNewMessage, wireMsg("m1", peerEntity, 100))

	msgs := ms.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("pushed message not appended: %+v", msgs)
	}
	if convs.reloads.Load() != 1 {
		t.Fatalf("list reload not scheduled, got %d", convs.reloads.Load())
	}
}

func TestNewMessageForOtherConversationOnlyReloads(t *testing.T) {
	source := newFakeEventSource()
	convs := &stubConversationService{}
	listener := NewLiveListener(source, convs)
	defer listener.Close()

	api := &fakeMessageAPI{}
	ms := NewMessageService(api, testSession(), testConvID, 0)
	listener.Bind(testConvID, ms)

	other := wireMsg("m1", peerEntity, 100)
	other.ConversationID = "conv_other"
	source.emit(t, consts.EventNewMessage, other)

	if got := ms.Messages(); len(got) != 0 {
		t.Fatalf("message for another conversation must not be appended, got %d", len(got))
	}
	if convs.reloads.Load() != 1 {
		t.Fatal("list reload must still be scheduled")
	}
}

func TestMessagesReadSchedulesReload(t *testing.T) {
	source := newFakeEventSource()
	convs := &stubConversationService{}
	listener := NewLiveListener(source, convs)
	defer listener.Close()

	source.emit(t, consts.EventMessagesRead, dto.ReadReceiptDTO{
		ConversationID: testConvID,
		ReaderID:       peerEntity,
	})

	if convs.reloads.Load() != 1 {
		t.Fatalf("read receipt must schedule a reload, got %d", convs.reloads.Load())
	}
}

func TestCloseRemovesAllHandlers(t *testing.T) {
	source := newFakeEventSource()
	listener := NewLiveListener(source, &stubConversationService{})

	listener.Close()

	if source.count(consts.EventNewMessage) != 0 || source.count(consts.EventMessagesRead) != 0 {
		t.Fatal("close must tear down both handlers")
	}

	// 二次 Close 幂等
	listener.Close()
}

func TestUnbindStopsDirectAppend(t *testing.T) {
	source := newFakeEventSource()
	convs := &stubConversationService{}
	listener := NewLiveListener(source, convs)
	defer listener.Close()

	api := &fakeMessageAPI{}
	ms := NewMessageService(api, testSession(), testConvID, 0)
	listener.Bind(testConvID, ms)
	listener.Unbind()

	source.emit(t, consts.EventNewMessage, wireMsg("m1", peerEntity, 100))

	if got := ms.Messages(); len(got) != 0 {
		t.Fatalf("unbound synchronizer must not receive pushes, got %d", len(got))
	}
}
