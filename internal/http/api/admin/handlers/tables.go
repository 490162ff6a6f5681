package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// TableHandler manages tables and their QR codes.
type TableHandler struct {
	tables *service.TableService
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables *service.TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

func (h *TableHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.tables.List(c.Request.Context(), user.ID)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": views.Tables(rows)})
}

func (h *TableHandler) Create(c *gin.Context) {
	var body service.TableInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	table, errCreate := h.tables.Create(c.Request.Context(), user.ID, body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.Table(table))
}

// Update renames a table and regenerates its QR code.
func (h *TableHandler) Update(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body service.TableInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	table, errUpdate := h.tables.Update(c.Request.Context(), user.ID, id, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Table(table))
}

func (h *TableHandler) RegenerateQR(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	table, errRegen := h.tables.RegenerateQR(c.Request.Context(), user.ID, id)
	if errRegen != nil {
		respond.Error(c, errRegen)
		return
	}
	c.JSON(http.StatusOK, views.Table(table))
}

func (h *TableHandler) Delete(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.tables.Delete(c.Request.Context(), user.ID, id); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
