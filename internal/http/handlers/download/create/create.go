// Package create реализует HTTP-обработчик добавления позиции каталога.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	downloadservice "github.com/magabrotheeeer/license-storefront/internal/services/download"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы добавления позиции каталога.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Create(ctx context.Context, req models.DummyDownloadCreate) (*models.Download, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавление позиции каталога
// @Description Создает новую позицию каталога загрузок, доступно только администратору
// @Tags Downloads
// @Accept  json
// @Produce  json
// @Param request body models.DummyDownloadCreate true "Данные позиции"
// @Success 200 {object} response.Response "Созданная позиция"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные или занятый slug"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /downloads [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyDownloadCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		validateErrs := err.(validator.ValidationErrors)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErrs))
		return
	}

	download, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, downloadservice.ErrSlugTaken) {
			log.Error("slug already taken", slog.String("slug", req.Slug))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("download with this slug already exists"))
			return
		}
		log.Error("failed to create download", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("download created",
		slog.Int("id", download.ID),
		slog.String("slug", download.Slug))
	render.JSON(w, r, response.OKWithData(download))
}
