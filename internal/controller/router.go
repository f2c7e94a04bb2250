package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Route("/room", func(r chi.Router) {
			r.Post("/", c.createRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Post("/join", c.joinRoom)

				r.Group(func(r chi.Router) {
					r.Use(c.authMw)

					r.Get("/", c.getSnapshot)
					r.Delete("/", c.closeRoom)
					r.Post("/leave", c.leaveRoom)
					r.Post("/song", c.addSong)
					r.Delete("/song/{song-id}", c.removeSong)
					r.Post("/vote", c.castVote)
					r.Post("/playback", c.setTransport)
					r.Post("/playback/initialize", c.initializePlayback)
					r.Post("/playback/advance", c.advancePlayback)
					r.Post("/playback/play-now", c.playNow)
				})
			})
		})
		r.Route("/ws", func(r chi.Router) {
			r.Route("/room/{room-id}", func(r chi.Router) {
				r.Use(c.authMw)
				r.Get("/", c.serveWs)
			})
		})
	})

	return r
}
