package handler

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/scriptreel/editor/errors"
	dto "github.com/scriptreel/editor/internal/adapter/dto/editor"
	"github.com/scriptreel/editor/internal/adapter/presenter"
	"github.com/scriptreel/editor/internal/domain/entities"
	editorUsecase "github.com/scriptreel/editor/internal/usecase/editor"
)

// Editor handles editing-session HTTP requests
type Editor struct {
	service editorUsecase.Service
	logger  *zap.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(service editorUsecase.Service, logger *zap.Logger) *Editor {
	return &Editor{
		service: service,
		logger:  logger,
	}
}

// CreateSession handles POST /editor/sessions
func (h *Editor) CreateSession(c echo.Context) error {
	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	seeds := make([]editorUsecase.SeedSegment, 0, len(req.Segments))
	for _, seg := range req.Segments {
		words := make([]entities.WordTiming, 0, len(seg.Words))
		for _, w := range seg.Words {
			words = append(words, entities.WordTiming{
				Word:       w.Word,
				Start:      w.Start,
				End:        w.End,
				Confidence: w.Confidence,
			})
		}
		seeds = append(seeds, editorUsecase.SeedSegment{
			Text:          seg.Text,
			Duration:      seg.Duration,
			VoiceURL:      seg.VoiceURL,
			VoiceDuration: seg.VoiceDuration,
			ImageURL:      seg.ImageURL,
			ImagePrompt:   seg.ImagePrompt,
			Words:         words,
			Locked:        seg.Locked,
		})
	}

	snap, err := h.service.CreateSession(c.Request().Context(), req.ProjectID, req.UserID, seeds)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToSessionResponse(snap))
}

// GetSession handles GET /editor/sessions/:id
func (h *Editor) GetSession(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	snap, err := h.service.GetSnapshot(sessionID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToSessionResponse(snap))
}

// CloseSession handles DELETE /editor/sessions/:id
func (h *Editor) CloseSession(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.CloseSession(sessionID); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// UpdateTimeline handles PATCH /editor/sessions/:id/timeline
func (h *Editor) UpdateTimeline(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.UpdateTimelineRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	upd := &editorUsecase.TimelineUpdate{
		Playhead:  req.Playhead,
		Playing:   req.Playing,
		Zoom:      req.Zoom,
		ViewStart: req.ViewStart,
		ViewEnd:   req.ViewEnd,
		Selection: req.Selection,
	}
	if req.Mode != nil {
		mode := entities.InteractionMode(*req.Mode)
		upd.Mode = &mode
	}

	if err := h.service.UpdateTimeline(sessionID, upd); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// AddSegment handles POST /editor/sessions/:id/segments
func (h *Editor) AddSegment(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.AddSegmentRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	outcome, err := h.service.AddSegment(c.Request().Context(), sessionID, req.AfterSegmentID, req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToEditOutcomeResponse(outcome))
}

// DeleteSegment handles DELETE /editor/sessions/:id/segments/:segmentId
func (h *Editor) DeleteSegment(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	outcome, err := h.service.DeleteSegment(c.Request().Context(), sessionID, c.Param("segmentId"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToEditOutcomeResponse(outcome))
}

// UpdateSegmentText handles PATCH /editor/sessions/:id/segments/:segmentId/text
func (h *Editor) UpdateSegmentText(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.UpdateSegmentTextRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	if err := h.service.UpdateSegmentText(sessionID, c.Param("segmentId"), req.Text); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// SplitSegment handles POST /editor/sessions/:id/segments/:segmentId/split
func (h *Editor) SplitSegment(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.SplitSegmentRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	if err := h.service.SplitSegment(sessionID, c.Param("segmentId"), req.AtTime); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// RegenerateAsset handles POST /editor/sessions/:id/segments/:segmentId/regenerate
func (h *Editor) RegenerateAsset(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.RegenerateAssetRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	op, err := h.service.RegenerateAsset(c.Request().Context(), sessionID, c.Param("segmentId"), entities.AssetType(req.Asset), req.CustomPrompt)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToOperationResponse(op))
}

// ReorderSegments handles POST /editor/sessions/:id/reorder
func (h *Editor) ReorderSegments(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.ReorderSegmentsRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	if err := h.service.ReorderSegments(sessionID, req.FromIndex, req.ToIndex); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// ConfirmDecision handles POST /editor/sessions/:id/decisions/:decisionId/confirm
func (h *Editor) ConfirmDecision(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}
	decisionID, err := uuid.Parse(c.Param("decisionId"))
	if err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument("invalid decision id"))
	}

	var req dto.ConfirmDecisionRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument(err.Error()))
	}

	outcome, err := h.service.ConfirmDecision(c.Request().Context(), sessionID, decisionID, req.StrategyID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToEditOutcomeResponse(outcome))
}

// CancelDecision handles DELETE /editor/sessions/:id/decisions/:decisionId
func (h *Editor) CancelDecision(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}
	decisionID, err := uuid.Parse(c.Param("decisionId"))
	if err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument("invalid decision id"))
	}

	if err := h.service.CancelDecision(sessionID, decisionID); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// RegenerateSync handles POST /editor/sessions/:id/sync/regenerate
func (h *Editor) RegenerateSync(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	op, err := h.service.RegenerateTimelineSync(c.Request().Context(), sessionID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToOperationResponse(op))
}

// GetOperation handles GET /editor/sessions/:id/operations/:operationId
func (h *Editor) GetOperation(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}
	operationID, err := uuid.Parse(c.Param("operationId"))
	if err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument("invalid operation id"))
	}

	op, err := h.service.GetOperation(sessionID, operationID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToOperationResponse(op))
}

// CancelOperation handles POST /editor/sessions/:id/operations/:operationId/cancel
func (h *Editor) CancelOperation(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}
	operationID, err := uuid.Parse(c.Param("operationId"))
	if err != nil {
		return h.handleError(c, apperrors.ErrInvalidArgument("invalid operation id"))
	}

	if err := h.service.CancelOperation(c.Request().Context(), sessionID, operationID); err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, nil)
}

// DrainNotifications handles GET /editor/sessions/:id/notifications
func (h *Editor) DrainNotifications(c echo.Context) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	notes, err := h.service.DrainNotifications(sessionID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.handleSuccess(c, presenter.ToNotificationResponses(notes))
}

// sessionID parses the session id path parameter
func (h *Editor) sessionID(c echo.Context) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidArgument("invalid session id")
	}
	return sessionID, nil
}

// fail maps domain errors to transport errors and writes the response
func (h *Editor) fail(c echo.Context, err error) error {
	return h.handleError(c, mapDomainError(c, err))
}

// mapDomainError translates usecase sentinel errors into AppErrors with the
// relevant path parameter as detail
func mapDomainError(c echo.Context, err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrSessionNotFound):
		return apperrors.ErrSessionNotFound(c.Param("id"))
	case stdErrors.Is(err, entities.ErrSessionClosed):
		return apperrors.ErrSessionClosed(c.Param("id"))
	case stdErrors.Is(err, entities.ErrSegmentNotFound):
		return apperrors.ErrSegmentNotFound(c.Param("segmentId"))
	case stdErrors.Is(err, entities.ErrSegmentLocked):
		return apperrors.ErrSegmentLocked(c.Param("segmentId"))
	case stdErrors.Is(err, entities.ErrDecisionNotFound):
		return apperrors.ErrDecisionNotFound(c.Param("decisionId"))
	case stdErrors.Is(err, entities.ErrDecisionExpired):
		return apperrors.ErrDecisionExpired(c.Param("decisionId"))
	case stdErrors.Is(err, entities.ErrUnknownStrategy):
		return apperrors.ErrUnknownStrategy("")
	case stdErrors.Is(err, entities.ErrOperationNotFound):
		return apperrors.ErrOperationNotFound(c.Param("operationId"))
	case stdErrors.Is(err, entities.ErrSyncNotRequired):
		return apperrors.ErrSyncNotRequired()
	case stdErrors.Is(err, entities.ErrSyncInProgress):
		return apperrors.ErrSyncInProgress()
	default:
		return apperrors.ErrInternal(err)
	}
}
