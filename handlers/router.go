// tavle/handlers/router.go
package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)
	mux.Use(SessionMiddleware(app))
	mux.Use(RateLimitMiddleware(app))

	mux.Route("/api", func(r chi.Router) {
		// Session API
		r.Post("/login", MakeHandler(app, HandleLogin))
		r.Post("/logout", MakeHandler(app, HandleLogout))
		r.Post("/register", MakeHandler(app, HandleRegister))
		r.Post("/users", MakeHandler(app, HandleRegister)) // alias for /register
		r.Get("/users/{userID}", MakeHandler(app, HandleGetUser))

		// Threads and posts
		r.Get("/threads", MakeHandler(app, HandleListThreads))
		r.Post("/threads", MakeHandler(app, HandleCreateThread))
		r.Get("/threads/{threadID}", MakeHandler(app, HandleGetThread))
		r.Post("/threads/{threadID}", MakeHandler(app, HandleCreatePost))
		r.Put("/threads/{threadID}", MakeHandler(app, HandleUpdateThread))
		r.Delete("/threads/{threadID}", MakeHandler(app, HandleDeleteThread))
		r.Get("/threads/{threadID}/posts", MakeHandler(app, HandleListPosts))
		r.Post("/threads/{threadID}/posts", MakeHandler(app, HandleCreatePost))
		r.Get("/posts/{postID}", MakeHandler(app, HandleGetPost))
		r.Put("/posts/{postID}", MakeHandler(app, HandleUpdatePost))
		r.Delete("/posts/{postID}", MakeHandler(app, HandleDeletePost))

		// Images
		r.Post("/images", MakeHandler(app, HandleUploadImage))
		r.Get("/images/{imageID}", MakeHandler(app, HandleGetImage))
	})

	return mux
}
