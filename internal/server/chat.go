package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/mohammad-safakhou/careerdesk/session"
)

const anonymousOwner = "anonymous"

// TurnRunner executes one conversation turn.
type TurnRunner interface {
	Run(ctx context.Context, transcript core.Transcript, utterance string) (core.TurnResult, error)
}

// ChatHandler serves conversation turns over per-session transcripts.
type ChatHandler struct {
	Sessions session.Store
	Turns    TurnRunner
	TTL      time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("", h.turn)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.clear)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID  string          `json:"session_id"`
	Reply      string          `json:"reply"`
	Outcome    core.Outcome    `json:"outcome"`
	Dispatches int             `json:"dispatches"`
	Transcript core.Transcript `json:"transcript"`
}

type transcriptResponse struct {
	SessionID  string          `json:"session_id"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Transcript core.Transcript `json:"transcript"`
}

// turn runs one utterance. An aborted turn still answers 200 with the
// apology; the transcript keeps whatever the turn produced before the fault.
func (h *ChatHandler) turn(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	sess, err := h.Sessions.EnsureSession(req.SessionID, ownerOf(c), h.TTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sess.Lock()
	defer sess.Unlock()

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	res, err := h.Turns.Run(ctx, sess.Transcript(), req.Message)
	if err != nil {
		if res.Outcome != core.OutcomeAborted {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.logger().WarnContext(ctx, "turn aborted", "session_id", sess.ID(), "error", err)
	}
	sess.SetTranscript(res.Transcript)
	sess.Expire(h.TTL)

	return c.JSON(http.StatusOK, chatResponse{
		SessionID:  sess.ID(),
		Reply:      res.Reply,
		Outcome:    res.Outcome,
		Dispatches: res.Dispatches,
		Transcript: res.Transcript,
	})
}

func (h *ChatHandler) get(c echo.Context) error {
	sess, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transcriptResponse{
		SessionID:  sess.ID(),
		ExpiresAt:  sess.ExpiresAt(),
		Transcript: sess.Transcript(),
	})
}

func (h *ChatHandler) clear(c echo.Context) error {
	sess, err := h.owned(c)
	if err != nil {
		return err
	}
	sess.Lock()
	sess.Clear()
	sess.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// owned looks up the path session; sessions of other owners are reported as
// missing.
func (h *ChatHandler) owned(c echo.Context) (session.Session, error) {
	sess, err := h.Sessions.GetSession(c.Param("id"))
	if errors.Is(err, session.ErrNotFound) || (err == nil && sess.Owner() != ownerOf(c)) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return sess, nil
}

func (h *ChatHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func ownerOf(c echo.Context) string {
	if sub, ok := runtime.SubjectFromContext(c.Request().Context()); ok && sub != "" {
		return sub
	}
	return anonymousOwner
}
