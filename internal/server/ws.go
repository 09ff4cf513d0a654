package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
)

const wsPingInterval = 30 * time.Second

// @Summary Stream pipeline events of a site
// @Description Upgrades to a websocket and sends one JSON event per pipeline state transition.
// @Tags ops
// @Param site path string true "Site slug"
// @Success 101
// @Failure 404 {object} ErrorResponse
// @Router /ws/sites/{site}/events [get]
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "site")
	site, err := s.app.Registry.GetSiteBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, interfaces.ErrSiteNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.writeStoreError(w, "subscribing to events", err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	sub := s.app.Events.Subscribe(site.Slug)
	defer sub.Close()
	s.logger.Info("event subscriber connected", logging.Field{Key: "site", Value: site.Slug})

	// Reader: we only care about the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
