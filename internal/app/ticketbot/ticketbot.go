// Package ticketbot собирает приложение бота тикетов: клиент чат-платформы,
// хранилище тикетов и HTTP-прослойку для витрины и callback-событий.
package ticketbot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/chatplatform"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/ticketbot"
)

// App представляет приложение бота тикетов.
type App struct {
	server *http.Server
	logger *slog.Logger
}

// New создает приложение бота. Хранилище тикетов живёт в памяти процесса
// и после перезапуска начинается пустым.
func New(cfg *config.Config, logger *slog.Logger) *App {
	chatClient := chatplatform.NewClient(cfg.ChatPlatform)
	store := ticketbot.NewTicketStore()
	botService := ticketbot.New(logger, chatClient, store, cfg.ChatPlatform)
	shim := ticketbot.NewShim(logger, botService, chatClient)

	srv := &http.Server{
		Addr:         cfg.AddressShim,
		Handler:      shim.Routes(),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
	}
}

// Run запускает HTTP-прослойку бота и останавливает её по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ticket bot shim starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down ticket bot gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
