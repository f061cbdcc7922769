package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func SetupRoutes(
	app *fiber.App,
	webhook *WebhookHandler,
	message *MessageHandler,
	otp *OTPHandler,
	session *SessionHandler,
	gatherer prometheus.Gatherer,
) {
	app.Use(recover.New())

	app.Get("/ping", Pong)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Post("/webhook", webhook.Handle)
	app.Get("/logout", session.Logout)

	api := app.Group("/api")
	api.Post("/send-message", message.SendMessage)
	api.Get("/otp/status", otp.GetOTPStatus)
	api.Put("/sessions/:userId", session.SaveSession)
}
