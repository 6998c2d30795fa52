package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/authhub/internal/predict"
	"github.com/gin-gonic/gin"
)

type Predictor interface {
	Predict(ctx context.Context, in predict.Input) (predict.Outcome, error)
	Info() (predict.Info, bool)
}

type PredictHandler struct {
	svc Predictor
}

func NewPredictHandler(svc Predictor) *PredictHandler {
	return &PredictHandler{svc: svc}
}

func (h *PredictHandler) Health(ctx *gin.Context) {
	info, loaded := h.svc.Info()

	var path *string
	if loaded {
		path = &info.Path
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": loaded,
		"model_path":   path,
	})
}

func (h *PredictHandler) Models(ctx *gin.Context) {
	info, loaded := h.svc.Info()

	if !loaded {
		RespondNotFound(ctx, "No model loaded")
		return
	}

	ctx.JSON(http.StatusOK, info)
}

func (h *PredictHandler) Predict(ctx *gin.Context) {
	var in predict.Input

	if !BindJSON(ctx, &in) {
		return
	}

	out, err := h.svc.Predict(ctx.Request.Context(), in)

	if err != nil {
		if errors.Is(err, predict.ErrNoModel) {
			RespondUnavailable(ctx, "no_model", "No model loaded")
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Prediction failed")
		return
	}

	ctx.JSON(http.StatusOK, out)
}
