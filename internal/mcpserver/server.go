// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the learning catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/terms"
	"github.com/starford/hunlearn/internal/vocabulary"
)

const curriculumURI = "hunlearn://curriculum"

// Server wraps the MCP server with the learning tools.
type Server struct {
	mcp        *server.MCPServer
	db         *store.DB
	vocab      *vocabulary.Service
	terms      *terms.Service
	curriculum *curriculum.Service
}

// New creates a new MCP server with all tools registered.
func New(db *store.DB, vocab *vocabulary.Service, termSvc *terms.Service, cur *curriculum.Service, version string) *Server {
	s := &Server{db: db, vocab: vocab, terms: termSvc, curriculum: cur}

	s.mcp = server.NewMCPServer(
		"hunlearn",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_vocabulary",
		mcp.WithDescription("Search the Hungarian vocabulary catalog by Hungarian word or Korean meaning."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Word or meaning to look for")),
		mcp.WithString("level", mcp.Description("Optional CEFR level filter (A1..C2)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of cards (default 20)")),
	), s.searchVocabulary)

	s.mcp.AddTool(mcp.NewTool("lookup_theological_term",
		mcp.WithDescription("Look up theological terms with Hungarian and Korean definitions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Term in Hungarian or Korean")),
		mcp.WithString("category", mcp.Description("Optional category, e.g. SOTERIOLOGY")),
	), s.lookupTerm)

	s.mcp.AddTool(mcp.NewTool("list_grammar_lessons",
		mcp.WithDescription("List grammar lessons in curriculum order."),
		mcp.WithString("level", mcp.Description("Optional CEFR level filter")),
		mcp.WithString("category", mcp.Description("Optional grammar category filter")),
	), s.listLessons)

	s.mcp.AddTool(mcp.NewTool("get_grammar_lesson",
		mcp.WithDescription("Read a grammar lesson with its explanation, examples and exercises."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Lesson id, e.g. A1-01-01")),
	), s.getLesson)

	s.mcp.AddTool(mcp.NewTool("due_cards",
		mcp.WithDescription("List the vocabulary cards a learner should review now, most urgent first."),
		mcp.WithString("user", mcp.Required(), mcp.Description("Learner email or user id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of due cards (default 20)")),
		mcp.WithNumber("new_limit", mcp.Description("Unseen cards to append (default 0)")),
	), s.dueCards)

	s.mcp.AddResource(
		mcp.NewResource(curriculumURI, "Grammar Curriculum",
			mcp.WithResourceDescription("Outline of every grammar lesson grouped by level."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCurriculum,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchVocabulary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, _ := store.Page(req.GetInt("limit", 20), 0, 20, 100)
	cards, total, err := s.vocab.List(store.CardFilter{
		Query: query,
		Level: req.GetString("level", ""),
		Limit: limit,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"cards": cards, "total": total})
}

func (s *Server) lookupTerm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.terms.Search(store.TermFilter{
		Query:    query,
		Category: strings.ToUpper(req.GetString("category", "")),
		Limit:    10,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(res.Terms) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no terms found for %q", query)), nil
	}
	return jsonResult(res.Terms)
}

func (s *Server) listLessons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lessons, err := s.curriculum.Lessons("", req.GetString("level", ""), req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, len(lessons))
	for i, l := range lessons {
		lines[i] = fmt.Sprintf("%s\t%s\t%s (%s)", l.ID, l.Category, l.Title, l.TitleKorean)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getLesson(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l, err := s.curriculum.Lesson("", id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("lesson not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(l.GrammarLesson)
}

func (s *Server) dueCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.db.UserByEmailOrID(strings.TrimSpace(key))
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("user not found: %s", key)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cards, err := s.vocab.Due(u.ID, req.GetInt("limit", 20), req.GetInt("new_limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cards) == 0 {
		return mcp.NewToolResultText("no cards due"), nil
	}
	return jsonResult(cards)
}

func (s *Server) readCurriculum(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	lessons, err := s.curriculum.Lessons("", "", "")
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("# Grammar curriculum\n")
	level := ""
	for _, l := range lessons {
		if l.Level != level {
			level = l.Level
			fmt.Fprintf(&b, "\n## %s\n\n", level)
		}
		fmt.Fprintf(&b, "- %s %s / %s (%d min)\n", l.ID, l.Title, l.TitleKorean, l.EstimatedMinutes)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      curriculumURI,
			MIMEType: "text/markdown",
			Text:     b.String(),
		},
	}, nil
}
