package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Documents
	mux.HandleFunc("/api/knowledge/upload", s.app.DocumentHandler.UploadHandler)       // POST - ingest a document
	mux.HandleFunc("/api/knowledge/documents", s.app.DocumentHandler.ListHandler)      // GET - list documents
	mux.HandleFunc("/api/knowledge/documents/", s.app.DocumentHandler.DeleteHandler)   // DELETE /{id}

	// API routes - Chat (RAG-grounded chat)
	mux.HandleFunc("/api/knowledge/chat", s.app.ChatHandler.ChatHandler)                // POST - grounded chat turn
	mux.HandleFunc("/api/knowledge/chat/history", s.app.ChatHandler.HistoryHandler)     // GET (list), DELETE (clear)
	mux.HandleFunc("/api/knowledge/chat/health", s.app.ChatHandler.HealthHandler)       // GET - pipeline health

	// API routes - System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Catch-all for unmatched routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
