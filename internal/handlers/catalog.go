package handlers

import (
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/services"
	"github.com/example/foodlist/internal/utils"
)

// CatalogHandler manages currencies, Wi-Fi networks and categories.
type CatalogHandler struct {
	db     *gorm.DB
	media  *services.MediaStorage
	qr     *services.QRService
	logger *slog.Logger
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB, media *services.MediaStorage, qr *services.QRService, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{db: db, media: media, qr: qr, logger: logger}
}

// ListCurrencies returns every currency.
func (h *CatalogHandler) ListCurrencies(c *fiber.Ctx) error {
	var currencies []models.Currency
	if err := h.db.Order("code asc").Find(&currencies).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": currencies})
}

type wifiRequest struct {
	OrganizationID string `json:"organization_id" form:"organization_id"`
	Name           string `json:"name" form:"name"`
	Password       string `json:"password" form:"password"`
}

func (r wifiRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrganizationID, validation.By(optionalUUID)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 255)),
	)
}

func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := uuid.Parse(s)
	return err
}

// ListWiFi returns Wi-Fi networks, optionally of one organization.
func (h *CatalogHandler) ListWiFi(c *fiber.Ctx) error {
	query := h.db.Model(&models.WiFi{})
	if v := c.Query("organization"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid organization")
		}
		query = query.Where("organization_id = ?", id)
	}

	var networks []models.WiFi
	if err := query.Order("created_at desc").Find(&networks).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": networks})
}

// CreateWiFi stores a network and renders its join QR code.
func (h *CatalogHandler) CreateWiFi(c *fiber.Ctx) error {
	var req wifiRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	wifi := models.WiFi{Name: req.Name, Password: req.Password}
	if req.OrganizationID != "" {
		id := uuid.MustParse(req.OrganizationID)
		if err := h.db.First(&models.Organization{}, "id = ?", id).Error; err != nil {
			return notFound(err, "organization not found")
		}
		wifi.OrganizationID = &id
	}
	wifi.EnsureID()

	qr, err := h.qr.WiFiQR(wifi.ID.String(), wifi.Name, wifi.Password)
	if err != nil {
		return err
	}
	wifi.QRCode = qr

	if err := h.db.Create(&wifi).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": wifi})
}

type wifiUpdateRequest struct {
	Name     *string `json:"name" form:"name"`
	Password *string `json:"password" form:"password"`
}

// UpdateWiFi changes a network's credentials and re-renders its QR code.
func (h *CatalogHandler) UpdateWiFi(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var wifi models.WiFi
	if err := h.db.First(&wifi, "id = ?", id).Error; err != nil {
		return notFound(err, "wifi not found")
	}

	var req wifiUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name != nil {
		wifi.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		wifi.Password = *req.Password
	}
	if wifi.Name == "" || wifi.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and password must not be empty")
	}

	qr, err := h.qr.WiFiQR(wifi.ID.String(), wifi.Name, wifi.Password)
	if err != nil {
		return err
	}
	wifi.QRCode = qr

	if err := h.db.Save(&wifi).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": wifi})
}

// DeleteWiFi removes a network and its QR code.
func (h *CatalogHandler) DeleteWiFi(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var wifi models.WiFi
	if err := h.db.First(&wifi, "id = ?", id).Error; err != nil {
		return notFound(err, "wifi not found")
	}
	if err := h.db.Delete(&wifi).Error; err != nil {
		return err
	}
	removeMedia(h.media, h.logger, wifi.QRCode)

	return c.SendStatus(fiber.StatusNoContent)
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       categories,
		"pagination": pg.Meta(total),
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		return notFound(err, "category not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

type categoryRequest struct {
	Name string `json:"name" form:"name"`
}

func (r categoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// CreateCategory persists a new category with an optional "image" upload.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	image, err := saveUpload(c, h.media, "image", "categories")
	if err != nil {
		return err
	}

	category := models.Category{Name: req.Name, Image: image}
	if err := h.db.Create(&category).Error; err != nil {
		removeMedia(h.media, h.logger, image)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory renames a category and replaces its image when one is uploaded.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		return notFound(err, "category not found")
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}

	image, err := saveUpload(c, h.media, "image", "categories")
	if err != nil {
		return err
	}
	previous := ""
	if image != "" {
		previous, category.Image = category.Image, image
	}

	if err := h.db.Save(&category).Error; err != nil {
		return err
	}
	removeMedia(h.media, h.logger, previous)

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		return notFound(err, "category not found")
	}

	var products int64
	if err := h.db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return err
	}
	if products > 0 {
		return fiber.NewError(fiber.StatusConflict, "category still has products")
	}

	if err := h.db.Delete(&category).Error; err != nil {
		return err
	}
	removeMedia(h.media, h.logger, category.Image)

	return c.SendStatus(fiber.StatusNoContent)
}
