package rest

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/api/dto"
	"Nocturne/internal/pkg/security"
	"Nocturne/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Client 会话域 REST 客户端。所有调用都携带 Bearer 凭证，
// 凭证缺失时静默短路为安全的空结果，不向上抛错。
type Client struct {
	http    *resty.Client
	session *security.Session
}

func NewClient(cfg config.APIConfig, session *security.Session) *Client {
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("User-Agent", "nocturne-sync/1.0")

	return &Client{http: httpClient, session: session}
}

// GetConversations 拉取账号的会话列表
func (s *Client) GetConversations(ctx context.Context, accountID string) ([]dto.ConversationDTO, error) {
	token := s.session.Token()
	if token == "" || accountID == "" {
		return nil, nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("account_id", accountID).
		Get("/v1/im/conversations")

	var out []dto.ConversationDTO
	if err = decodeEnvelope(resp, err, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMessages 拉取单个会话的一页消息，before 为空表示取最新页
func (s *Client) GetMessages(ctx context.Context, conversationID string, limit int, before *time.Time) (*dto.MessagePageDTO, error) {
	token := s.session.Token()
	if token == "" || conversationID == "" {
		return &dto.MessagePageDTO{}, nil
	}

	req := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("limit", strconv.Itoa(limit))
	if before != nil {
		req.SetQueryParam("before", before.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get("/v1/im/conversations/" + conversationID + "/messages")

	var out dto.MessagePageDTO
	if err = decodeEnvelope(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage 发送消息。不回读消息体，成功与否由调用方决定是否重新同步
func (s *Client) SendMessage(ctx context.Context, conversationID string, req *dto.SendMessageReq) error {
	token := s.session.Token()
	if token == "" || conversationID == "" {
		return nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		Post("/v1/im/conversations/" + conversationID + "/messages")

	return decodeEnvelope(resp, err, nil)
}

// MarkMessagesRead 上报已读位置，lastReadID 为空表示无可标记消息
func (s *Client) MarkMessagesRead(ctx context.Context, conversationID, readerID string, lastReadID *string) error {
	token := s.session.Token()
	if token == "" || conversationID == "" {
		return nil
	}

	body := &dto.MarkReadReq{ReaderID: readerID, LastReadMessageID: lastReadID}
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		Post("/v1/im/conversations/" + conversationID + "/read")

	return decodeEnvelope(resp, err, nil)
}

// CreateOrGetConversation 获取或创建与目标实体的单聊会话
func (s *Client) CreateOrGetConversation(ctx context.Context, entityA, entityB string) (*dto.ConversationDTO, error) {
	token := s.session.Token()
	if token == "" {
		return nil, nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"participant_a": entityA, "participant_b": entityB}).
		Post("/v1/im/conversations")

	var out dto.ConversationDTO
	if err = decodeEnvelope(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfileByEntityID 拉取对端实体的公开资料
func (s *Client) GetProfileByEntityID(ctx context.Context, entityID string) (*dto.ProfileResp, error) {
	token := s.session.Token()
	if token == "" || entityID == "" {
		return &dto.ProfileResp{}, nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/v1/entities/" + entityID + "/profile")

	var out dto.ProfileResp
	if err = decodeEnvelope(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeEnvelope 解开统一响应封装并做业务码判定
func decodeEnvelope(resp *resty.Response, reqErr error, out any) error {
	if reqErr != nil {
		return errors.Wrap(reqErr, "请求失败")
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("非预期的 HTTP 状态: %d", resp.StatusCode())
	}

	var env dto.Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return errors.Wrap(err, "响应解析失败")
	}
	if env.Code != 200 {
		if conflict := service.MatchConflict(env.Message); conflict != nil {
			return conflict
		}
		log.Warn("后端返回业务错误", "code", env.Code, "message", env.Message)
		return errors.Errorf("业务错误 %d: %s", env.Code, env.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "响应数据解析失败")
	}
	return nil
}
