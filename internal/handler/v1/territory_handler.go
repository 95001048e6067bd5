package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/service"
)

// TerritoryHandler serves the community agent views: the prioritized
// work-list, the contact directory, and the per-patient contact card.
type TerritoryHandler struct {
	worklistSvc *service.WorkListService
	outreachSvc *service.OutreachService
}

func NewTerritoryHandler(worklistSvc *service.WorkListService, outreachSvc *service.OutreachService) *TerritoryHandler {
	return &TerritoryHandler{worklistSvc: worklistSvc, outreachSvc: outreachSvc}
}

func (h *TerritoryHandler) WorkList(c *gin.Context) {
	items, err := h.worklistSvc.BuildWorkList(c.Request.Context(), callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *TerritoryHandler) Directory(c *gin.Context) {
	records, err := h.worklistSvc.Directory(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"patients": records,
		"count":    len(records),
	})
}

func (h *TerritoryHandler) Contact(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	card, err := h.worklistSvc.Contact(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, card)
}

func (h *TerritoryHandler) MarkNotified(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.outreachSvc.MarkNotified(c.Request.Context(), id, callerID(c), callerRole(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"patient_id": id, "status": string(outreach.StatusNotified)})
}

func (h *TerritoryHandler) MarkVisited(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.outreachSvc.MarkVisited(c.Request.Context(), id, callerID(c), callerRole(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"patient_id": id, "status": string(outreach.StatusVisited)})
}

func (h *TerritoryHandler) OutreachStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	status, err := h.outreachSvc.LatestStatus(c.Request.Context(), id, callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"patient_id": id, "status": string(status)})
}

type visitAttemptResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *TerritoryHandler) OutreachHistory(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	attempts, err := h.outreachSvc.History(c.Request.Context(), id, callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]visitAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, visitAttemptResponse{
			ID:        a.ID.String(),
			Status:    string(a.Status),
			CreatedAt: a.CreatedAt,
		})
	}

	respondOK(c, gin.H{"patient_id": id, "attempts": resp})
}
