package httpadapter

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/farum-wellness/internal/app/account"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	"github.com/PabloGalante/farum-wellness/internal/app/mood"
	"github.com/PabloGalante/farum-wellness/internal/app/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/app/tasks"
	"github.com/PabloGalante/farum-wellness/internal/app/validation"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// maxBodyBytes covers 100 turns of 10000 characters plus JSON overhead.
const maxBodyBytes = 4 << 20

// Policies are the rate budgets applied per route group.
type Policies struct {
	Chat  ratelimit.Policy
	Tasks ratelimit.Policy
	Read  ratelimit.Policy
}

type Deps struct {
	Conversation *conversation.Service
	Generator    *tasks.Generator
	Board        *tasks.Board
	Moods        *mood.History
	Accounts     *account.Service
	Governor     *ratelimit.Governor
	Auth         Authenticator
	Policies     Policies

	TrustedProxies []string
}

type Server struct {
	deps Deps
}

func NewServer(deps Deps) http.Handler {
	s := &Server{deps: deps}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		observability.Logger().Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(withLogging(), withRecovery(), withCORS())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := requireAuth(deps.Auth)
	limit := func(p ratelimit.Policy) gin.HandlerFunc { return withRateLimit(deps.Governor, p) }

	r.POST("/chat", limit(deps.Policies.Chat), auth, s.handleChat)
	r.POST("/chat/delete", limit(deps.Policies.Read), auth, s.handleDeleteChat)
	r.POST("/tasks/generate", limit(deps.Policies.Tasks), auth, s.handleGenerateTasks)
	r.GET("/tasks/today", limit(deps.Policies.Read), auth, s.handleTodayTasks)
	r.POST("/tasks/update", limit(deps.Policies.Read), auth, s.handleUpdateTask)
	r.GET("/mood", limit(deps.Policies.Read), auth, s.handleMoodHistory)
	r.POST("/account/delete", limit(deps.Policies.Read), auth, s.handleDeleteAccount)

	return r
}

// ─────────────────────────────────────────────
// DTOs (responses)
// ─────────────────────────────────────────────

type chatResponse struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
	ChatID  string `json:"chatId"`
}

type taskResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

type tasksResponse struct {
	Success bool           `json:"success"`
	Tasks   []taskResponse `json:"tasks"`
}

type taskUpdateResponse struct {
	Success bool         `json:"success"`
	Task    taskResponse `json:"task"`
}

type moodEntryResponse struct {
	ID        string    `json:"id"`
	Score     int       `json:"score"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type moodHistoryResponse struct {
	Success bool                `json:"success"`
	Entries []moodEntryResponse `json:"entries"`
}

type okResponse struct {
	Success bool `json:"success"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	in, err := validation.ParseChatRequest(body)
	if err != nil {
		writeError(c, err)
		return
	}

	out, err := s.deps.Conversation.Reply(c.Request.Context(), conversation.ReplyInput{
		UserID:    userID(c),
		ChatInput: *in,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{Text: out.Text, Success: true, ChatID: string(out.ChatID)})
}

func (s *Server) handleGenerateTasks(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	lang, err := validation.ParseTaskGenerationRequest(body)
	if err != nil {
		writeError(c, err)
		return
	}

	out, err := s.deps.Generator.Generate(c.Request.Context(), userID(c), lang)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksResponse{Success: true, Tasks: toTasksResponse(out)})
}

func (s *Server) handleTodayTasks(c *gin.Context) {
	out, err := s.deps.Board.Today(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksResponse{Success: true, Tasks: toTasksResponse(out)})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	id, completed, err := validation.ParseTaskUpdateRequest(body)
	if err != nil {
		writeError(c, err)
		return
	}

	task, err := s.deps.Board.SetCompleted(c.Request.Context(), userID(c), id, completed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskUpdateResponse{Success: true, Task: toTaskResponse(task)})
}

func (s *Server) handleMoodHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, domain.Invalid(domain.CodeValidation, "limit must be an integer", err))
			return
		}
		if n < 1 {
			writeError(c, domain.Invalid(domain.CodeValidation,
				fmt.Sprintf("limit must be between 1 and %d", mood.MaxHistoryLimit), domain.ErrSchemaViolation))
			return
		}
		limit = n
	}

	entries, err := s.deps.Moods.Recent(c.Request.Context(), userID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := moodHistoryResponse{Success: true, Entries: make([]moodEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, moodEntryResponse{
			ID:        string(e.ID),
			Score:     e.Score,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteChat(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	chatID, err := validation.ParseDeleteChatRequest(body)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.deps.Accounts.DeleteChat(c.Request.Context(), userID(c), chatID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	if err := s.deps.Accounts.DeleteAccount(c.Request.Context(), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, okResponse{Success: true})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// readBody reads the request body, writing the envelope error on failure.
func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		writeError(c, domain.Invalid(domain.CodeInvalidRequest, "Invalid request format", err))
		return nil, false
	}
	return body, true
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:        string(t.ID),
		UserID:    string(t.UserID),
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
}

func toTasksResponse(ts []*domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTaskResponse(t))
	}
	return out
}
