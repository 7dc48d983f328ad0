// Package server exposes the chat backend over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"tonebot/internal/chat"
	"tonebot/internal/gif"
)

type Server struct {
	router       *chi.Mux
	orchestrator *chat.Orchestrator
	registry     *chat.Registry
	gifs         chat.GifFetcher
}

func New(orchestrator *chat.Orchestrator, registry *chat.Registry, gifs chat.GifFetcher) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		registry:     registry,
		gifs:         gifs,
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/gifs/{topic}", s.handleGif)
	s.router.Post("/chat", s.handleChat)
	s.router.Post("/chat/new", s.handleNewChat)
	s.router.Get("/chat/list", s.handleListChats)
	s.router.Delete("/chat/delete/{conversationID}", s.handleDeleteChat)
	s.router.Put("/chat/rename", s.handleRenameChat)
	s.router.Get("/chat/history", s.handleChatHistory)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGif(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if unescaped, err := url.PathUnescape(topic); err == nil {
		topic = unescaped
	}

	gifURL := s.gifs.Fetch(r.Context(), topic)
	resp := gifResponse{Topic: topic, GifURL: gifURL}
	if gifURL == gif.FallbackGIF {
		resp.Message = gif.FallbackMessage
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	reply, err := s.orchestrator.HandleMessage(r.Context(), req.ConversationID, req.Role, req.Message)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{
		Response:       reply.Response,
		ConversationID: reply.ConversationID,
		Gif:            reply.GifURL,
	})
}

func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	var req newChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ConversationID == "" {
		s.writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}
	if req.Tone == "" {
		req.Tone = chat.DefaultTone
	}
	if req.Title == "" {
		req.Title = chat.DefaultTitle
	}

	if _, err := s.registry.Create(req.ConversationID, req.Tone, req.Title); err != nil {
		s.writeChatError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, confirmationResponse{
		Message:        fmt.Sprintf("Chat '%s' created.", req.Title),
		ConversationID: req.ConversationID,
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := s.registry.Delete(id); err != nil {
		s.writeChatError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, confirmationResponse{Message: fmt.Sprintf("Chat '%s' deleted.", id)})
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	var req renameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.registry.Rename(req.ConversationID, req.NewTitle); err != nil {
		s.writeChatError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, confirmationResponse{Message: fmt.Sprintf("Chat renamed to '%s'.", req.NewTitle)})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("conversationId")
	conv, err := s.registry.Get(id)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv.History())
}

// writeChatError maps the chat error taxonomy onto HTTP statuses
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	var upstreamErr *chat.UpstreamError
	switch {
	case errors.Is(err, chat.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case chat.IsUserError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstreamErr):
		log.Printf("Upstream failure: %v", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Unexpected error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
