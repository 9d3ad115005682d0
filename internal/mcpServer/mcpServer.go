// Package mcpServer exposes the knowledge base as MCP tools over stdio.
package mcpServer

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "cyberrag"
	serverVersion = "v1.0.0"

	SearchToolName = "search_standards"
	AskToolName    = "ask_standards"
)

// Assistant is the subset of rag.Service the tools call.
type Assistant interface {
	Ask(ctx context.Context, q commonModels.Query) (commonModels.Answer, error)
	Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error)
	ClampK(k int) int
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"question or keywords to look up in the security standards"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return, 0 for the default"`
}

type Passage struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Section string  `json:"section,omitempty"`
	Score   float32 `json:"score"`
	Text    string  `json:"text"`
}

type SearchOutput struct {
	DetectedLanguage string    `json:"detected_language"`
	Passages         []Passage `json:"passages"`
}

type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from OWASP, MITRE ATT&CK and the Thai web security standard"`
	SessionId string `json:"session_id,omitempty" jsonschema:"conversation to continue, empty starts a new one"`
	K         int    `json:"k,omitempty" jsonschema:"number of passages to ground the answer on"`
	Language  string `json:"language,omitempty" jsonschema:"auto, en or th"`
}

type AskOutput struct {
	SessionId string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

type Server struct {
	assistant Assistant
	server    *mcp.Server
	logger    *logger_i.Logger
}

func New(assistant Assistant) *Server {
	s := &Server{
		assistant: assistant,
		server:    mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		logger:    logger_i.NewLogger("mcpServer"),
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        SearchToolName,
		Description: "Search the indexed cybersecurity standards and return the most relevant passages with their source and page.",
	}, s.search)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        AskToolName,
		Description: "Answer a question grounded on the indexed cybersecurity standards, citing sources.",
	}, s.ask)
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio")
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	if err := s.server.Run(ctx, t); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// MCP exposes the underlying server, mostly for in-memory test sessions.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

func (s *Server) search(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, SearchOutput{}, commonModels.ErrEmptyQuestion
	}
	result, err := s.assistant.Retrieve(ctx, in.Query, s.assistant.ClampK(in.K))
	if err != nil {
		s.logger.Error("search_standards failed", "error", err)
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{
		DetectedLanguage: string(result.DetectedLanguage),
		Passages:         make([]Passage, 0, len(result.Chunks)),
	}
	for _, c := range result.Chunks {
		out.Passages = append(out.Passages, Passage{
			Source:  c.Chunk.Source,
			Page:    c.Chunk.Position,
			Section: c.Chunk.Section,
			Score:   c.Score,
			Text:    c.Chunk.Chunk,
		})
	}
	return nil, out, nil
}

func (s *Server) ask(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.assistant.Ask(ctx, commonModels.Query{
		SessionId: in.SessionId,
		Text:      in.Question,
		K:         s.assistant.ClampK(in.K),
		Language:  commonModels.ParseLanguage(in.Language),
	})
	if err != nil {
		s.logger.Error("ask_standards failed", "error", err)
		return nil, AskOutput{}, err
	}

	out := AskOutput{SessionId: answer.SessionId, Answer: answer.Text, Sources: []string{}}
	for _, c := range answer.Sources {
		out.Sources = append(out.Sources, rag.SourceLine(c.Chunk))
	}
	return nil, out, nil
}
