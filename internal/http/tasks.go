package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookies/internal/tasks"
)

// MaintenanceController exposes the orphan-author cleanup to admins.
type MaintenanceController struct {
	queue   TaskQueue
	cleaner OrphanAuthorsCleaner
}

// NewMaintenanceController creates the controller. queue may be nil, in
// which case cleanups run inline.
func NewMaintenanceController(queue TaskQueue, cleaner OrphanAuthorsCleaner) *MaintenanceController {
	return &MaintenanceController{queue: queue, cleaner: cleaner}
}

// CleanupAuthors handles POST /admin/cleanup-authors.
func (mc *MaintenanceController) CleanupAuthors(c *gin.Context) {
	ctx := c.Request.Context()

	if mc.queue != nil {
		id, err := mc.queue.Enqueue(ctx, tasks.CleanupOrphanAuthorsTask{Reason: "admin"})
		if err != nil {
			respondInternalError(c, err, "enqueue author cleanup")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": id,
			"type":    tasks.CleanupOrphanAuthorsQueue,
			"message": "task enqueued",
		})
		return
	}

	deleted, err := mc.cleaner.DeleteOrphanAuthors(ctx)
	if err != nil {
		respondInternalError(c, err, "cleanup authors")
		return
	}
	respondSuccess(c, "orphan authors removed", gin.H{"deleted": deleted})
}

// TaskStatus handles GET /admin/tasks/:id.
func (mc *MaintenanceController) TaskStatus(c *gin.Context) {
	if mc.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	taskID := c.Param("id")
	status, err := mc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == "not_found" {
		respondNotFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": taskID, "status": status})
}
