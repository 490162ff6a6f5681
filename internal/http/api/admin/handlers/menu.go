package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// MenuHandler manages categories and menu items.
type MenuHandler struct {
	menu *service.MenuService
}

// NewMenuHandler constructs a MenuHandler.
func NewMenuHandler(menu *service.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// ListCategories returns categories in display order.
func (h *MenuHandler) ListCategories(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.menu.ListCategories(c.Request.Context(), user.ID)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": views.Categories(rows)})
}

func (h *MenuHandler) CreateCategory(c *gin.Context) {
	var body service.CategoryInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	category, errCreate := h.menu.CreateCategory(c.Request.Context(), user.ID, body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.Category(category))
}

func (h *MenuHandler) UpdateCategory(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body service.UpdateCategoryInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	category, errUpdate := h.menu.UpdateCategory(c.Request.Context(), user.ID, id, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Category(category))
}

// DeleteCategory refuses with 409 while the category still has items.
func (h *MenuHandler) DeleteCategory(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.menu.DeleteCategory(c.Request.Context(), user.ID, id); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListItems returns menu items, optionally filtered by ?categoryId=.
func (h *MenuHandler) ListItems(c *gin.Context) {
	var categoryID *uint64
	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		parsed, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId", "code": "validation"})
			return
		}
		categoryID = &parsed
	}
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.menu.ListItems(c.Request.Context(), user.ID, categoryID)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views.MenuItems(rows)})
}

// CreateItem adds an item; categoryName finds or creates the category.
func (h *MenuHandler) CreateItem(c *gin.Context) {
	var body service.MenuItemInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	item, errCreate := h.menu.CreateItem(c.Request.Context(), user.ID, body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.MenuItem(item))
}

func (h *MenuHandler) UpdateItem(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body service.UpdateMenuItemInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	item, errUpdate := h.menu.UpdateItem(c.Request.Context(), user.ID, id, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.MenuItem(item))
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// SetAvailability toggles whether diners can order the item.
func (h *MenuHandler) SetAvailability(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body availabilityRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || body.Available == nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	item, errUpdate := h.menu.SetAvailability(c.Request.Context(), user.ID, id, *body.Available)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.MenuItem(item))
}

func (h *MenuHandler) DeleteItem(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.menu.DeleteItem(c.Request.Context(), user.ID, id); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
