package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openfloor/qna-service/internal/config"
	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/hub"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/internal/service"
	"github.com/openfloor/qna-service/pkg/log"
)

// WSHandler handles WebSocket sessions for live question updates.
type WSHandler struct {
	hub      *hub.Hub
	service  service.QuestionService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.QuestionService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsCfg.ReadBufferSize,
			WriteBufferSize: wsCfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection, sends the role-scoped state
// snapshot, registers the session, and starts the read/write pumps.
// Roles come from the `role` query parameter (comma-separated); the
// default is a public viewer. The moderator channel is assumed trusted.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	roles, err := parseRoles(c.Query("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, roles, h.wsCfg)

	// Snapshot first, then registration: Bootstrap enqueues the snapshot
	// on the send channel before the session can receive any event.
	if err := h.service.Bootstrap(context.Background(), client); err != nil {
		l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("failed to bootstrap session")
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	ctx := context.Background()
	l := log.L().With().Str(log.FieldClientID, client.ID).Logger()

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypeSubmitQuestion:
		var msg domain.SubmitQuestionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid submit_question message"))
			return
		}
		if _, err := h.service.Submit(ctx, msg.Text, msg.Author); err != nil {
			l.Warn().Err(err).Msg("submit via websocket failed")
			client.SendMessage(commandError(err))
		}

	case domain.MsgTypeSetStatus:
		if !client.HasRole(hub.RoleModerator) {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "set_status requires the moderator role"))
			return
		}
		var msg domain.SetStatusMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid set_status message"))
			return
		}
		target, err := domain.ParseStatus(msg.Status)
		if err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown status: "+msg.Status))
			return
		}
		if _, err := h.service.SetStatus(ctx, msg.ID, target); err != nil {
			l.Warn().Err(err).Str(log.FieldQuestionID, msg.ID).Msg("set_status via websocket failed")
			client.SendMessage(commandError(err))
		}

	case domain.MsgTypeDeleteQuestion:
		if !client.HasRole(hub.RoleModerator) {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "delete_question requires the moderator role"))
			return
		}
		var msg domain.DeleteQuestionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid delete_question message"))
			return
		}
		if err := h.service.Delete(ctx, msg.ID); err != nil {
			l.Warn().Err(err).Str(log.FieldQuestionID, msg.ID).Msg("delete via websocket failed")
			client.SendMessage(commandError(err))
		}

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}

// commandError maps a command failure to a private error message. Failed
// commands are never broadcast; only the issuing session hears about them.
func commandError(err error) *domain.ErrorMessage {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return domain.NewErrorMessage(domain.ErrCodeBadRequest, "question text must not be empty")
	case errors.Is(err, repository.ErrQuestionNotFound):
		return domain.NewErrorMessage(domain.ErrCodeNotFound, "question not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		return domain.NewErrorMessage(domain.ErrCodeInvalidTransition, "status cannot move backward")
	case errors.Is(err, domain.ErrInvalidStatus):
		return domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown status")
	}
	return domain.NewErrorMessage(domain.ErrCodeInternalError, "command failed")
}

func parseRoles(raw string) ([]hub.Role, error) {
	if raw == "" {
		return []hub.Role{hub.RolePublic}, nil
	}

	var roles []hub.Role
	for _, part := range strings.Split(raw, ",") {
		switch hub.Role(strings.TrimSpace(part)) {
		case hub.RolePublic:
			roles = append(roles, hub.RolePublic)
		case hub.RoleModerator:
			roles = append(roles, hub.RoleModerator)
		default:
			return nil, errors.New("unknown role: " + part)
		}
	}
	return roles, nil
}
