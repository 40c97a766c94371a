package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/services"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

type reminderResponse struct {
	ID               string  `json:"id"`
	Title            *string `json:"title"`
	Category         string  `json:"category"`
	UpgradeType      string  `json:"upgradeType"`
	TotalSeconds     int64   `json:"totalSeconds"`
	RemainingSeconds int64   `json:"remainingSeconds"`
	IsActive         bool    `json:"isActive"`
	IsCompleted      bool    `json:"isCompleted"`
	CreatedAt        int64   `json:"createdAt"`
	EndTime          int64   `json:"endTime"`
	PausedAt         *int64  `json:"pausedAt"`
	Pinned           bool    `json:"pinned"`
	Order            int     `json:"order"`
}

func newReminderResponse(r *models.Reminder) reminderResponse {
	return reminderResponse{
		ID:               r.ID,
		Title:            r.Title,
		Category:         r.Category,
		UpgradeType:      r.UpgradeType,
		TotalSeconds:     r.TotalSeconds,
		RemainingSeconds: r.RemainingSeconds,
		IsActive:         r.IsActive,
		IsCompleted:      r.IsCompleted,
		CreatedAt:        r.CreatedAt,
		EndTime:          r.EndTime,
		PausedAt:         r.PausedAt,
		Pinned:           r.Pinned,
		Order:            r.Order,
	}
}

// reconciledView returns the reminder as it looks at the current instant
// without persisting anything.
func (h *handlerImpl) reconciledView(r *models.Reminder) reminderResponse {
	view, _ := timer.Reconcile(*r, timer.Millis(h.now()))
	return newReminderResponse(&view)
}

type createReminderRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Category    string  `json:"category" binding:"required,max=255"`
	UpgradeType string  `json:"upgradeType" binding:"required,oneof=building lab pet"`
	Hours       int64   `json:"hours" binding:"min=0,max=8760"`
	Minutes     int64   `json:"minutes" binding:"min=0,max=525600"`
	Seconds     int64   `json:"seconds" binding:"min=0,max=31536000"`
}

func (h *handlerImpl) HandleCreateReminder(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req createReminderRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind create reminder request")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateReminderParams{
		UserID:      userID,
		Category:    req.Category,
		UpgradeType: req.UpgradeType,
		Hours:       req.Hours,
		Minutes:     req.Minutes,
		Seconds:     req.Seconds,
	}
	if req.Title != nil {
		params.Title = *req.Title
	}

	reminder, err := h.reminders.CreateReminder(c, params)
	if err != nil {
		h.abortReminderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReminderResponse(reminder))
}

func (h *handlerImpl) HandleGetReminders(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	mode, err := timer.ParseSortMode(c.Query("sort"))
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}

	reminders, err := h.reminders.GetReminders(c, userID)
	if err != nil {
		h.abortReminderError(c, err)
		return
	}

	now := timer.Millis(h.now())
	views := make([]models.Reminder, len(reminders))
	for i, r := range reminders {
		views[i], _ = timer.Reconcile(*r, now)
	}

	ordered := timer.Arrange(views, mode).Ordered()
	response := make([]reminderResponse, len(ordered))
	for i := range ordered {
		response[i] = newReminderResponse(&ordered[i])
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetReminder(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	reminder, err := h.reminders.GetReminder(c, services.ReminderParams{
		ID:     c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		h.abortReminderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.reconciledView(reminder))
}

// applyActionRequest carries the action kind and, for update, the
// descriptive fields. Timing fields are accepted only to be rejected.
type applyActionRequest struct {
	Action      string  `json:"action" binding:"required"`
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Category    *string `json:"category" binding:"omitempty,max=255"`
	UpgradeType *string `json:"upgradeType"`

	TotalSeconds     *int64 `json:"totalSeconds"`
	RemainingSeconds *int64 `json:"remainingSeconds"`
	IsActive         *bool  `json:"isActive"`
	IsCompleted      *bool  `json:"isCompleted"`
	EndTime          *int64 `json:"endTime"`
	PausedAt         *int64 `json:"pausedAt"`
	Pinned           *bool  `json:"pinned"`
	Order            *int   `json:"order"`
}

func (r applyActionRequest) hasTimingFields() bool {
	return r.TotalSeconds != nil || r.RemainingSeconds != nil ||
		r.IsActive != nil || r.IsCompleted != nil ||
		r.EndTime != nil || r.PausedAt != nil ||
		r.Pinned != nil || r.Order != nil
}

func (h *handlerImpl) HandleApplyAction(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req applyActionRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind action request")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	if req.hasTimingFields() {
		abort(c, newBadRequestError(errTimingFieldsReadOnly.Error()))
		return
	}

	action, err := timer.NewAction(req.Action, timer.Patch{
		Title:       req.Title,
		Category:    req.Category,
		UpgradeType: req.UpgradeType,
	})
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}

	reminder, err := h.reminders.ApplyAction(c, services.ApplyActionParams{
		ID:     c.Param("id"),
		UserID: userID,
		Action: action,
	})
	if err != nil {
		h.abortReminderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

func (h *handlerImpl) HandleDeleteReminder(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.reminders.DeleteReminder(c, services.ReminderParams{
		ID:     c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		h.abortReminderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type syncResponse struct {
	Updated   []services.RemainingUpdate   `json:"updated"`
	Completed []services.CompletedReminder `json:"completed"`
}

func (h *handlerImpl) HandleSyncReminders(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	result, err := h.reminders.Sync(c, userID)
	if err != nil {
		h.abortReminderError(c, err)
		return
	}

	response := syncResponse{
		Updated:   result.Updated,
		Completed: result.Completed,
	}
	if response.Updated == nil {
		response.Updated = []services.RemainingUpdate{}
	}
	if response.Completed == nil {
		response.Completed = []services.CompletedReminder{}
	}
	c.JSON(http.StatusOK, response)
}

type orderUpdateRequest struct {
	ID    string `json:"id" binding:"required"`
	Order int    `json:"order" binding:"min=0,max=2147483647"`
}

type reorderRequest struct {
	OrderUpdates []orderUpdateRequest `json:"orderUpdates" binding:"required,dive"`
}

type reorderResponse struct {
	Applied int      `json:"applied"`
	Failed  []string `json:"failed"`
}

func (h *handlerImpl) HandleReorderReminders(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req reorderRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind reorder request")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	updates := make([]timer.OrderUpdate, len(req.OrderUpdates))
	for i, u := range req.OrderUpdates {
		updates[i] = timer.OrderUpdate{ID: u.ID, Order: u.Order}
	}

	result, err := h.reminders.Reorder(c, userID, updates)
	if err != nil {
		h.abortReminderError(c, err)
		return
	}

	response := reorderResponse{
		Applied: result.Applied,
		Failed:  result.Failed,
	}
	if response.Failed == nil {
		response.Failed = []string{}
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) abortReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReminderNotFound):
		abort(c, newNotFoundError(services.ErrReminderNotFound.Error()))
	case errors.Is(err, timer.ErrCompleted):
		abort(c, newConflictError(timer.ErrCompleted.Error()))
	case errors.Is(err, timer.ErrInvalidAction),
		errors.Is(err, timer.ErrInvalidPatch),
		errors.Is(err, timer.ErrInvalidDuration),
		errors.Is(err, timer.ErrInvalidCategory),
		errors.Is(err, timer.ErrInvalidUpgrade):
		abort(c, newBadRequestError(err.Error()))
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("reminder request failed")
		abort(c, newInternalError())
	}
}
