// Package register реализует HTTP-обработчик скачивания позиции каталога:
// проверяет право доступа, фиксирует событие и отдает ссылку на файл.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/services/access"
	downloadservice "github.com/magabrotheeeer/license-storefront/internal/services/download"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы скачивания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Register(ctx context.Context, userUID string, downloadID int, ip string) (*models.Download, *access.Decision, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Скачивание позиции каталога
// @Description Проверяет право доступа к позиции, учитывает скачивание и возвращает ссылку на файл
// @Tags Downloads
// @Produce  json
// @Param id path int true "Идентификатор позиции"
// @Success 200 {object} response.Response "Ссылка на файл"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 404 {object} response.ErrorResponse "Позиция не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /downloads/{id}/download [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("failed to get user uid from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	downloadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid download id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid download id"))
		return
	}

	download, decision, err := h.service.Register(r.Context(), userUID, downloadID, middlewarectx.ClientIP(r))
	if err != nil {
		if errors.Is(err, downloadservice.ErrDownloadNotFound) {
			log.Error("download not found", slog.Int("download_id", downloadID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("download not found"))
			return
		}
		log.Error("failed to register download", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	if !decision.Allowed {
		log.Warn("download denied",
			slog.Int("download_id", downloadID),
			slog.String("reason", decision.Reason))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error(decision.Reason))
		return
	}

	log.Info("download registered",
		slog.Int("download_id", downloadID),
		slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"name":     download.Name,
		"version":  download.Version,
		"file_url": download.FileURL,
	}))
}
