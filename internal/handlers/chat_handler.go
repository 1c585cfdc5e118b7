package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService interfaces.ChatService
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// ChatHandler handles POST /api/knowledge/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}

	var req interfaces.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.CompanyID = companyID
	req.UserID = r.Header.Get(HeaderUserID)

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Message field is required")
		return
	}

	h.logger.Info().
		Str("company_id", companyID).
		Str("session_id", req.SessionID).
		Int("message_length", len(req.Message)).
		Msg("Processing chat request")

	response, err := h.chatService.Chat(r.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrGeneration) || errors.Is(err, models.ErrEmbedding) {
			h.logger.Error().Err(err).Str("company_id", companyID).Msg("Chat pipeline failed")
			WriteError(w, http.StatusServiceUnavailable, "Failed to generate AI response")
			return
		}
		h.logger.Error().Err(err).Str("company_id", companyID).Msg("Chat request failed")
		WriteError(w, http.StatusInternalServerError, "An error occurred during chat")
		return
	}

	WriteJSON(w, http.StatusOK, response)
}

// HistoryHandler handles GET and DELETE /api/knowledge/chat/history requests
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getHistory(w, r)
	case http.MethodDelete:
		h.clearHistory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChatHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	messages, err := h.chatService.History(r.Context(), companyID, sessionID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to load chat history")
		WriteError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *ChatHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	deleted, err := h.chatService.ClearHistory(r.Context(), companyID, sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to clear chat history")
		WriteError(w, http.StatusInternalServerError, "Failed to clear chat history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}

// HealthHandler handles GET /api/knowledge/chat/health requests
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if err := h.chatService.HealthCheck(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
