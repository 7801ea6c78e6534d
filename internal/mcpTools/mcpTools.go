package mcpTools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/PDFChat/internal/adapter"
	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/api"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/session"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Sessions is the part of session.Manager the tools need.
type Sessions interface {
	Ask(ctx context.Context, id string, question string) (rag.Answer, error)
	History(ctx context.Context, id string) ([]commonModels.Turn, error)
}

type AskInput struct {
	SessionId string `json:"session_id" jsonschema:"id of a session whose documents were already processed"`
	Question  string `json:"question" jsonschema:"question about the uploaded documents"`
}

type AskOutput struct {
	Answer   string               `json:"answer"`
	Provider string               `json:"provider"`
	Sources  []api.SourceResponse `json:"sources"`
}

type HistoryInput struct {
	SessionId string `json:"session_id" jsonschema:"id of the session"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HistoryOutput struct {
	Messages []Message `json:"messages"`
}

type tools struct {
	sessions Sessions
	logger   *logger_i.Logger
}

// NewServer exposes ask_question and get_history over existing sessions.
func NewServer(sessions Sessions) *mcp.Server {
	t := &tools{sessions: sessions, logger: logger_i.NewLogger("MCP")}
	server := mcp.NewServer(&mcp.Implementation{Name: "pdfchat", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the PDF documents processed in a chat session. The exchange is added to the session history.",
	}, t.askQuestion)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Return the conversation history of a chat session, oldest message first.",
	}, t.getHistory)
	return server
}

// NewHandler serves the MCP server over streamable HTTP.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (t *tools) askQuestion(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	ctx = withTrace(ctx)
	log := t.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("session", in.SessionId)
	if !utils.IsValidUUID(in.SessionId) {
		return nil, AskOutput{}, errors.New("session_id must be a session id returned by POST /sessions")
	}
	if strings.TrimSpace(in.Question) == "" {
		return nil, AskOutput{}, errors.New("question is empty")
	}

	answer, err := t.sessions.Ask(ctx, in.SessionId, in.Question)
	if err != nil {
		log.Warn("ask_question failed", "error", err)
		return nil, AskOutput{}, toolError(err)
	}

	res := adapter.ToAnswerResponse(in.Question, answer)
	out := AskOutput{Answer: res.Answer, Provider: res.Provider, Sources: res.Sources}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: answer.Text}}}, out, nil
}

func (t *tools) getHistory(ctx context.Context, req *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	ctx = withTrace(ctx)
	if !utils.IsValidUUID(in.SessionId) {
		return nil, HistoryOutput{}, errors.New("session_id must be a session id returned by POST /sessions")
	}
	turns, err := t.sessions.History(ctx, in.SessionId)
	if err != nil {
		return nil, HistoryOutput{}, toolError(err)
	}

	history := adapter.ToHistoryResponse(in.SessionId, turns)
	out := HistoryOutput{Messages: make([]Message, 0, len(history.Messages))}
	var text strings.Builder
	for _, m := range history.Messages {
		out.Messages = append(out.Messages, Message{Role: m.Role, Content: m.Content})
		fmt.Fprintf(&text, "%s: %s\n", m.Role, m.Content)
	}
	if text.Len() == 0 {
		text.WriteString("No messages yet.")
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text.String()}}}, out, nil
}

// toolError turns service errors into the same messages the HTTP API returns.
func toolError(err error) error {
	if errors.Is(err, session.ErrEmptyQuestion) {
		return errors.New("question is empty")
	}
	return errors.New(adapter.ToErrorResponse(err).Message)
}

func withTrace(ctx context.Context) context.Context {
	if _, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
}
