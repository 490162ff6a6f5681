// Package views turns stored rows into response payloads. Every handler
// renders through here so admin and public routes agree on field names.
package views

import (
	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
	"github.com/menuqr/menuqr/internal/service"
)

// User omits the password hash and the TOTP secret.
func User(user models.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role(),
		"approvalStatus":  user.ApprovalStatus,
		"tier":            user.Tier,
		"isApproved":      user.IsApproved,
		"approvedAt":      user.ApprovedAt,
		"rejectedAt":      user.RejectedAt,
		"rejectionReason": user.RejectionReason,
		"totpEnabled":     user.HasTOTP(),
		"createdAt":       user.CreatedAt,
		"updatedAt":       user.UpdatedAt,
	}
}

func Users(rows []models.User) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, User(row))
	}
	return out
}

func Restaurant(restaurant models.Restaurant) gin.H {
	return gin.H{
		"id":           restaurant.ID,
		"ownerId":      restaurant.OwnerID,
		"name":         restaurant.Name,
		"slug":         restaurant.Slug,
		"description":  restaurant.Description,
		"address":      restaurant.Address,
		"phone":        restaurant.Phone,
		"email":        restaurant.Email,
		"openingHours": restaurant.OpeningHours,
		"createdAt":    restaurant.CreatedAt,
		"updatedAt":    restaurant.UpdatedAt,
	}
}

// PublicRestaurant is the diner-facing subset.
func PublicRestaurant(restaurant models.Restaurant) gin.H {
	return gin.H{
		"name":         restaurant.Name,
		"slug":         restaurant.Slug,
		"description":  restaurant.Description,
		"address":      restaurant.Address,
		"phone":        restaurant.Phone,
		"email":        restaurant.Email,
		"openingHours": restaurant.OpeningHours,
	}
}

func Category(category models.Category) gin.H {
	return gin.H{
		"id":           category.ID,
		"restaurantId": category.RestaurantID,
		"name":         category.Name,
		"emoji":        category.Emoji,
		"description":  category.Description,
		"order":        category.Order,
		"createdAt":    category.CreatedAt,
		"updatedAt":    category.UpdatedAt,
	}
}

func Categories(rows []models.Category) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category(row))
	}
	return out
}

func MenuItem(item models.MenuItem) gin.H {
	return gin.H{
		"id":           item.ID,
		"restaurantId": item.RestaurantID,
		"categoryId":   item.CategoryID,
		"name":         item.Name,
		"description":  item.Description,
		"price":        item.Price,
		"image":        item.Image,
		"available":    item.Available,
		"createdAt":    item.CreatedAt,
		"updatedAt":    item.UpdatedAt,
	}
}

func MenuItems(rows []models.MenuItem) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, MenuItem(row))
	}
	return out
}

// PublicMenu renders the scanned menu with prices formatted in the
// restaurant's currency.
func PublicMenu(menu service.PublicMenu) gin.H {
	categories := make([]gin.H, 0, len(menu.Categories))
	for _, section := range menu.Categories {
		items := make([]gin.H, 0, len(section.Items))
		for _, item := range section.Items {
			items = append(items, gin.H{
				"id":             item.ID,
				"name":           item.Name,
				"description":    item.Description,
				"price":          item.Price,
				"formattedPrice": models.FormatPrice(item.Price, menu.Settings.Currency),
				"image":          item.Image,
			})
		}
		categories = append(categories, gin.H{
			"id":          section.Category.ID,
			"name":        section.Category.Name,
			"emoji":       section.Category.Emoji,
			"description": section.Category.Description,
			"order":       section.Category.Order,
			"items":       items,
		})
	}
	return gin.H{
		"restaurant": PublicRestaurant(menu.Restaurant),
		"settings":   PublicSettings(menu.Settings),
		"categories": categories,
	}
}

func Table(table models.Table) gin.H {
	return gin.H{
		"id":           table.ID,
		"restaurantId": table.RestaurantID,
		"number":       table.Number,
		"qrCodeUrl":    table.QRCodeURL,
		"qrCodeData":   table.QRCodeData,
		"createdAt":    table.CreatedAt,
		"updatedAt":    table.UpdatedAt,
	}
}

func Tables(rows []models.Table) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, Table(row))
	}
	return out
}

func Order(order models.Order) gin.H {
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"id":         item.ID,
			"menuItemId": item.MenuItemID,
			"name":       item.Name,
			"quantity":   item.Quantity,
			"price":      item.Price,
			"lineTotal":  item.LineTotal(),
			"notes":      item.Notes,
		})
	}
	return gin.H{
		"id":           order.ID,
		"restaurantId": order.RestaurantID,
		"tableId":      order.TableID,
		"tableNumber":  order.TableNumber,
		"customerName": order.CustomerName,
		"notes":        order.Notes,
		"totalAmount":  order.TotalAmount,
		"status":       order.Status,
		"items":        items,
		"createdAt":    order.CreatedAt,
		"updatedAt":    order.UpdatedAt,
	}
}

func Orders(rows []models.Order) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, Order(row))
	}
	return out
}

func Reservation(reservation models.Reservation) gin.H {
	return gin.H{
		"id":            reservation.ID,
		"restaurantId":  reservation.RestaurantID,
		"customerName":  reservation.CustomerName,
		"customerPhone": reservation.CustomerPhone,
		"dateTime":      reservation.DateTime,
		"peopleCount":   reservation.PeopleCount,
		"notes":         reservation.Notes,
		"createdAt":     reservation.CreatedAt,
		"updatedAt":     reservation.UpdatedAt,
	}
}

func Reservations(rows []models.Reservation) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, Reservation(row))
	}
	return out
}

func Feedback(feedback models.Feedback) gin.H {
	items := make([]gin.H, 0, len(feedback.Items))
	for _, item := range feedback.Items {
		items = append(items, gin.H{
			"menuItemId": item.MenuItemID,
			"rating":     item.Rating,
			"comment":    item.Comment,
		})
	}
	return gin.H{
		"id":           feedback.ID,
		"restaurantId": feedback.RestaurantID,
		"tableId":      feedback.TableID,
		"rating":       feedback.Rating,
		"comment":      feedback.Comment,
		"customerName": feedback.CustomerName,
		"isApproved":   feedback.IsApproved,
		"items":        items,
		"createdAt":    feedback.CreatedAt,
	}
}

func Feedbacks(rows []models.Feedback) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, Feedback(row))
	}
	return out
}

func RatingSummary(summary service.RatingSummary) gin.H {
	return gin.H{"average": summary.Average, "count": summary.Count}
}

func Homepage(homepage models.Homepage) gin.H {
	return gin.H{
		"presentation":       homepage.Presentation,
		"reservationBtnText": homepage.ReservationBtnText,
		"sliders":            homepage.Sliders,
		"testimonials":       homepage.Testimonials,
		"socialLinks":        homepage.SocialLinks,
		"updatedAt":          homepage.UpdatedAt,
	}
}

func Settings(settings models.RestaurantSettings) gin.H {
	return gin.H{
		"logoUrl":        settings.LogoURL,
		"primaryColor":   settings.PrimaryColor,
		"commandeATable": settings.CommandeATable,
		"showRating":     settings.ShowRating,
		"showReviews":    settings.ShowReviews,
		"currency":       settings.Currency,
		"updatedAt":      settings.UpdatedAt,
	}
}

// PublicSettings drops the bookkeeping fields.
func PublicSettings(settings models.RestaurantSettings) gin.H {
	out := Settings(settings)
	delete(out, "updatedAt")
	return out
}

func Subscription(sub models.Subscription) gin.H {
	return gin.H{
		"id":               sub.ID,
		"userId":           sub.UserID,
		"plan":             sub.Plan,
		"status":           sub.Status,
		"maxRestaurants":   sub.MaxRestaurants,
		"maxScansPerMonth": sub.MaxScansPerMonth,
		"features":         sub.Features,
		"createdAt":        sub.CreatedAt,
		"updatedAt":        sub.UpdatedAt,
	}
}

func UsageStats(stats models.UsageStats) gin.H {
	return gin.H{
		"restaurantCount": stats.RestaurantCount,
		"scansThisMonth":  stats.ScansThisMonth,
		"scansTotal":      stats.ScansTotal,
		"lastScanAt":      stats.LastScanAt,
		"resetAt":         stats.ResetAt,
	}
}

func Plan(detail plans.Detail) gin.H {
	features := make([]string, 0, len(detail.Features))
	for _, feature := range detail.Features {
		features = append(features, string(feature))
	}
	return gin.H{
		"plan":             detail.Plan,
		"name":             detail.Name,
		"price":            detail.Price,
		"maxRestaurants":   detail.MaxRestaurants,
		"maxScansPerMonth": detail.MaxScansPerMonth,
		"features":         features,
		"highlights":       detail.Highlights,
	}
}

func Plans(details []plans.Detail) []gin.H {
	out := make([]gin.H, 0, len(details))
	for _, detail := range details {
		out = append(out, Plan(detail))
	}
	return out
}
