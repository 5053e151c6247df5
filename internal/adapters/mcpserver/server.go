// Package mcpserver exposes the to-do data to assistants over the Model Context
// Protocol: read-only tools, a resource with every task and a progress prompt.
// It has no authentication and is meant for a local stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
)

// AllTodosURI names the resource listing every task.
const AllTodosURI = "todo://todos/all"

const serverName = "todo"

// Handler serves MCP requests from the task and user services.
type Handler struct {
	tasks  *services.TaskService
	users  *services.UserService
	logger *logger.Logger
}

// New builds the MCP server with every tool, resource and prompt registered.
func New(tasks *services.TaskService, users *services.UserService, version string, log *logger.Logger) *server.MCPServer {
	h := &Handler{
		tasks:  tasks,
		users:  users,
		logger: log.WithComponent("mcp"),
	}

	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("get_all_todos",
		mcp.WithDescription("List every to-do of every user, newest first."),
	), h.getAllTodos)

	s.AddTool(mcp.NewTool("search_todos",
		mcp.WithDescription("Search to-dos of all users. Every argument is optional and they combine with AND."),
		mcp.WithBoolean("completed", mcp.Description("Only completed (true) or only open (false) to-dos")),
		mcp.WithString("dueDateFrom", mcp.Description("Earliest due date, YYYY-MM-DD; excludes to-dos without a due date")),
		mcp.WithString("dueDateTo", mcp.Description("Latest due date, YYYY-MM-DD; excludes to-dos without a due date")),
		mcp.WithString("keyword", mcp.Description("Case-insensitive text the title must contain")),
		mcp.WithBoolean("hasNoDueDate", mcp.Description("Only undated (true) or only dated (false) to-dos")),
		mcp.WithString("sortBy", mcp.Description("TITLE, DUE_DATE, CREATED_AT, UPDATED_AT or COMPLETED")),
		mcp.WithString("sortDirection", mcp.Description("ASC or DESC")),
	), h.searchTodos)

	s.AddTool(mcp.NewTool("get_all_users",
		mcp.WithDescription("List every user account."),
	), h.getAllUsers)

	s.AddResource(mcp.NewResource(AllTodosURI, "All to-dos",
		mcp.WithResourceDescription("The current list of every to-do"),
		mcp.WithMIMEType("application/json"),
	), h.readAllTodos)

	s.AddPrompt(mcp.NewPrompt("remain_todos",
		mcp.WithPromptDescription("Draft a progress report on a user's unfinished to-dos"),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Username to report on"),
			mcp.RequiredArgument(),
		),
	), h.remainTodos)

	return s
}

func (h *Handler) getAllTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := h.tasks.ListAll(ctx, taskquery.Filter{}, taskquery.DefaultSort())
	if err != nil {
		return nil, err
	}
	h.logger.Debugw("Tool called", "tool", req.Params.Name, "results", len(tasks))
	return jsonResult(tasks)
}

func (h *Handler) searchTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	filter, err := filterFromArguments(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order := taskquery.ParseSort(stringArgument(args, "sortBy"), stringArgument(args, "sortDirection"))

	tasks, err := h.tasks.ListAll(ctx, filter, order)
	if err != nil {
		return nil, err
	}
	h.logger.Debugw("Tool called", "tool", req.Params.Name, "results", len(tasks))
	return jsonResult(tasks)
}

func (h *Handler) getAllUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := h.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(users)
}

func (h *Handler) readAllTodos(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tasks, err := h.tasks.ListAll(ctx, taskquery.Filter{}, taskquery.DefaultSort())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      AllTodosURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *Handler) remainTodos(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := strings.TrimSpace(req.Params.Arguments["name"])
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", entities.ErrValidation)
	}

	user, err := h.users.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	all, err := h.tasks.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	open, err := h.tasks.ListByCompletion(ctx, user, false)
	if err != nil {
		return nil, err
	}
	open = taskquery.SortTasks(open, taskquery.Sort{Field: taskquery.SortByDueDate, Direction: taskquery.Ascending})

	text := progressPrompt(user.Username, len(all)-len(open), len(all), open)
	return mcp.NewGetPromptResult("Remaining to-dos for "+user.Username, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(text)),
	}), nil
}

func progressPrompt(username string, done, total int, open []*entities.Task) string {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a message reporting task progress to %s.\n\n", username)
	fmt.Fprintf(&b, "# Progress\n- %d/%d (%d%%)\n\n", done, total, pct)
	b.WriteString("# Unfinished to-dos (earliest due first)\n")
	if len(open) == 0 {
		b.WriteString("- none\n")
	}
	for _, t := range open {
		due := "no due date"
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		fmt.Fprintf(&b, "- %s: %s\n", due, t.Title)
	}
	fmt.Fprintf(&b, "\n# Full list\n- %s\n\n", AllTodosURI)
	b.WriteString("# Report\n")
	b.WriteString("- Show progress as `done/total (ddd%)`\n")
	b.WriteString("- List unfinished to-dos that are due soon with their due date and title\n")
	b.WriteString("- Suggest which to-do to start next\n")
	return b.String()
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
