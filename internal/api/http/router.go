package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/http/handlers"
	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/config"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Mode              config.Mode
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Chat              *handlers.ChatHandler
	Agent             *handlers.AgentHandler
	Support           *handlers.SupportHandler
	SessionMiddleware *auth.SessionMiddleware
}

// NewApp creates the adapter app. Request values outlive their handlers in
// transcripts and sessions, so fiber must not hand out strings backed by reused buffers.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{AppName: name, Immutable: true})
}

// RegisterRoutes wires HTTP routes. Agent routes exist only on agent consoles.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/sign-up", cfg.Auth.SignUp)
	authGroup.Post("/sign-out", cfg.Auth.SignOut)
	authGroup.Get("/session", cfg.Auth.Session)

	api := app.Group("/api")
	api.Get("/knowledge/search", cfg.Support.SearchKnowledge)

	protected := api.Group("", cfg.SessionMiddleware.Handle, auth.RequireAnySession())
	protected.Post("/chat/messages", cfg.Chat.Submit)
	protected.Get("/chat/transcript", cfg.Chat.Transcript)
	protected.Post("/chat/scroll", cfg.Chat.Scroll)

	if cfg.Mode == config.ModeCustomer {
		customer := protected.Group("", auth.RequireMode(config.ModeCustomer))
		customer.Post("/tickets", cfg.Support.CreateTicket)
		customer.Post("/feedback", cfg.Support.SubmitFeedback)
		return
	}

	agent := protected.Group("", auth.RequireMode(config.ModeAgent))
	agent.Get("/agent/queue", cfg.Agent.Queue)
	agent.Post("/agent/queue/:id/assign", cfg.Agent.Assign)
	agent.Post("/agent/status", cfg.Agent.UpdateStatus)
	agent.Get("/agent/roster", cfg.Agent.Roster)
	agent.Post("/agent/conversations/:id/open", cfg.Agent.OpenConversation)
	agent.Get("/notifications", cfg.Agent.Notifications)
	agent.Delete("/notifications/:id", cfg.Agent.DismissNotification)
	agent.Post("/admin/integrations/:provider/:action", cfg.Support.ProviderAction)
}
