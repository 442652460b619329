package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

const (
	// FallbackStatusError is shown when a failed response carries no error text.
	FallbackStatusError = "The server returned an error."
	// FallbackLogicalError is shown when a non-success payload carries no error text.
	FallbackLogicalError = "An unknown error occurred."

	statusSuccess = "success"
)

// HeaderSource supplies auth headers for each request.
type HeaderSource func(ctx context.Context) http.Header

// ClientDependencies wires collaborators for Client.
type ClientDependencies struct {
	HTTPClient *http.Client
	Headers    HeaderSource
	Logger     *zap.Logger
}

// Client talks to the ticket backend's request/response endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    HeaderSource
	logger     *zap.Logger
}

// NewClient creates a backend client. No request timeout is applied.
func NewClient(baseURL string, deps ClientDependencies) *Client {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: deps.HTTPClient,
		headers:    deps.Headers,
		logger:     deps.Logger,
	}
}

type envelope struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e envelope) result() envelope { return e }

type statusCarrier interface {
	result() envelope
}

// CustomerMessage is one customer chat submission.
type CustomerMessage struct {
	CustomerID     string
	Message        string
	ConversationID string
}

// CustomerReply is the backend's answer to a customer message.
type CustomerReply struct {
	ConversationID string
	Text           string
}

type customerReplyBody struct {
	envelope
	ConversationID string `json:"conversation_id"`
	Response       struct {
		Text string `json:"text"`
	} `json:"response"`
}

// SendCustomerMessage posts a customer chat message. ConversationID is omitted when empty.
func (c *Client) SendCustomerMessage(ctx context.Context, msg CustomerMessage) (CustomerReply, error) {
	form := url.Values{}
	form.Set("customer_id", msg.CustomerID)
	form.Set("message", msg.Message)
	if msg.ConversationID != "" {
		form.Set("conversation_id", msg.ConversationID)
	}

	var body customerReplyBody
	if err := c.postForm(ctx, "/customer/chat/message", form, &body); err != nil {
		return CustomerReply{}, err
	}
	return CustomerReply{ConversationID: body.ConversationID, Text: body.Response.Text}, nil
}

// AgentMessage is one agent reply sent over HTTP.
type AgentMessage struct {
	AgentID string
	Message string
	Action  string
}

// SendAgentMessage posts an agent reply into a conversation.
func (c *Client) SendAgentMessage(ctx context.Context, conversationID string, msg AgentMessage) error {
	form := url.Values{}
	form.Set("agent_id", msg.AgentID)
	form.Set("message", msg.Message)
	if msg.Action != "" {
		form.Set("action", msg.Action)
	}
	var body envelope
	return c.postForm(ctx, "/agent/chat/"+url.PathEscape(conversationID)+"/message", form, &body)
}

// AssignTicket claims a ticket for an agent.
func (c *Client) AssignTicket(ctx context.Context, ticketID, agentID string) error {
	form := url.Values{}
	form.Set("agent_id", agentID)
	var body envelope
	return c.postForm(ctx, "/agent/ticket/"+url.PathEscape(ticketID)+"/assign", form, &body)
}

// ProviderAction is an admin operation on an integration provider.
type ProviderAction string

const (
	ProviderTest   ProviderAction = "test"
	ProviderToggle ProviderAction = "toggle"
)

// RunProviderAction performs a test or toggle on the named provider.
func (c *Client) RunProviderAction(ctx context.Context, provider string, action ProviderAction) error {
	switch action {
	case ProviderTest, ProviderToggle:
	default:
		return apperrors.NewValidationError("unsupported provider action", map[string]any{"action": action})
	}
	var body envelope
	return c.postForm(ctx, "/admin/integrations/"+url.PathEscape(provider)+"/"+string(action), url.Values{}, &body)
}

type createTicketBody struct {
	envelope
	TicketID string `json:"ticket_id"`
}

// CreateTicket submits a ticket draft and returns the backend-assigned id.
func (c *Client) CreateTicket(ctx context.Context, draft domain.TicketDraft) (string, error) {
	form := url.Values{}
	form.Set("subject", draft.Subject)
	form.Set("category", draft.Category)
	form.Set("description", draft.Description)

	var body createTicketBody
	if err := c.postForm(ctx, "/customer/tickets", form, &body); err != nil {
		return "", err
	}
	if body.TicketID == "" {
		return "", apperrors.NewTransportError(fmt.Errorf("create ticket response has no ticket_id"))
	}
	return body.TicketID, nil
}

// KnowledgeResults is the backend's knowledge search answer.
type KnowledgeResults struct {
	Query      string                    `json:"query"`
	Results    []domain.KnowledgeArticle `json:"results"`
	TotalFound int                       `json:"total_found"`
}

// SearchKnowledge queries the backend knowledge base. Results are returned as ranked by the backend.
func (c *Client) SearchKnowledge(ctx context.Context, query, category string) (KnowledgeResults, error) {
	params := url.Values{}
	params.Set("query", query)
	if category != "" {
		params.Set("category", category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/knowledge/search?"+params.Encode(), nil)
	if err != nil {
		return KnowledgeResults{}, apperrors.NewInternalError(err)
	}
	var out KnowledgeResults
	if err := c.do(req, &out); err != nil {
		return KnowledgeResults{}, err
	}
	return out, nil
}

// SubmitFeedback posts a customer satisfaction rating.
func (c *Client) SubmitFeedback(ctx context.Context, fb domain.Feedback) error {
	form := url.Values{}
	form.Set("customer_id", fb.CustomerID)
	form.Set("rating", strconv.Itoa(fb.Rating))
	form.Set("category", fb.Category)
	form.Set("message", fb.Message)
	if fb.Email != "" {
		form.Set("email", fb.Email)
	}
	var body envelope
	return c.postForm(ctx, "/customer/feedback/submit", form, &body)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out statusCarrier) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := c.do(req, out); err != nil {
		return err
	}
	if res := out.result(); res.Status != statusSuccess {
		text := res.Error
		if text == "" {
			text = FallbackLogicalError
		}
		c.logger.Debug("backend reported failure", zap.String("path", path), zap.String("status", res.Status), zap.String("error", text))
		return apperrors.NewLogicalError(text)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.headers != nil {
		for key, values := range c.headers(req.Context()) {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("url", req.URL.Path), zap.Error(err))
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := errorText(body)
		c.logger.Debug("backend returned error status", zap.String("url", req.URL.Path), zap.Int("status", resp.StatusCode))
		return apperrors.NewStatusError(resp.StatusCode, text)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewTransportError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func errorText(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if detail, ok := payload.Detail.(string); ok && detail != "" {
			return detail
		}
	}
	return FallbackStatusError
}
