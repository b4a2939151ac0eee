package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/api/middleware"
)

// LiveServer streams resource events for one account over a websocket.
type LiveServer interface {
	Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, account uuid.UUID) error
}

type LiveHandler struct {
	live LiveServer
	log  zerolog.Logger
}

func NewLiveHandler(live LiveServer, log zerolog.Logger) *LiveHandler {
	return &LiveHandler{live: live, log: log}
}

// Stream handles GET /v1/live.
//
// @Summary      Live resource updates (websocket)
// @Description  Upgrades to a websocket that receives every resource event owned by the caller.
// @Tags         live
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Session token when the Authorization header cannot be set"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /v1/live [get]
func (h *LiveHandler) Stream(c echo.Context) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return err
	}

	// The connection is hijacked; errors after this point cannot be rendered.
	if err := h.live.Serve(c.Request().Context(), c.Response(), c.Request(), claims.Subject); err != nil {
		h.log.Info().Err(err).Str("account_id", claims.Subject.String()).Msg("live session ended")
	}
	return nil
}
