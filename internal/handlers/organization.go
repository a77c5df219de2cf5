package handlers

import (
	"errors"
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

// OrganizationHandler manages eateries.
type OrganizationHandler struct {
	db     *gorm.DB
	media  *services.MediaStorage
	logger *slog.Logger
}

// NewOrganizationHandler constructs OrganizationHandler.
func NewOrganizationHandler(db *gorm.DB, media *services.MediaStorage, logger *slog.Logger) *OrganizationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationHandler{db: db, media: media, logger: logger}
}

type organizationRequest struct {
	Name        string  `json:"name" form:"name"`
	ShortName   string  `json:"short_name" form:"short_name"`
	CurrencyID  string  `json:"currency" form:"currency"`
	PhoneNumber string  `json:"phone_number" form:"phone_number"`
	Address     string  `json:"address" form:"address"`
	ServiceFee  float64 `json:"service_fee" form:"service_fee"`
	Description string  `json:"description" form:"description"`
}

func (r organizationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ShortName, validation.Required, validation.Length(1, 50), validation.By(urlSafe)),
		validation.Field(&r.CurrencyID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.By(validPhone)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ServiceFee, validation.Min(0.0), validation.Max(100.0)),
	)
}

func urlSafe(value interface{}) error {
	s, _ := value.(string)
	if services.SafeFilename(s) != s {
		return errors.New("must contain only letters, digits and underscores")
	}
	return nil
}

// GetOrganization returns an organization with its currency and Wi-Fi networks.
// The id may also be the organization's short name.
func (h *OrganizationHandler) GetOrganization(c *fiber.Ctx) error {
	query := h.db.Preload("Currency").Preload("WiFi")

	var org models.Organization
	var err error
	if id, parseErr := uuid.Parse(c.Params("id")); parseErr == nil {
		err = query.First(&org, "id = ?", id).Error
	} else {
		err = query.First(&org, "short_name = ?", c.Params("id")).Error
	}
	if err != nil {
		return notFound(err, "organization not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": org})
}

// CreateOrganization stores an organization with optional "logo" and "wallpaper" uploads.
func (h *OrganizationHandler) CreateOrganization(c *fiber.Ctx) error {
	var req organizationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ShortName = strings.TrimSpace(req.ShortName)
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	currencyID := uuid.MustParse(req.CurrencyID)
	if err := h.db.First(&models.Currency{}, "id = ?", currencyID).Error; err != nil {
		return notFound(err, "currency not found")
	}
	phone, _ := utils.NormalizePhone(req.PhoneNumber)

	logo, err := saveUpload(c, h.media, "logo", "logos")
	if err != nil {
		return err
	}
	wallpaper, err := saveUpload(c, h.media, "wallpaper", "wallpapers")
	if err != nil {
		removeMedia(h.media, h.logger, logo)
		return err
	}

	org := models.Organization{
		Name:        req.Name,
		ShortName:   req.ShortName,
		Logo:        logo,
		Wallpaper:   wallpaper,
		CurrencyID:  currencyID,
		PhoneNumber: phone,
		Address:     strings.TrimSpace(req.Address),
		ServiceFee:  req.ServiceFee,
		Description: req.Description,
	}
	if err := h.db.Create(&org).Error; err != nil {
		removeMedia(h.media, h.logger, logo)
		removeMedia(h.media, h.logger, wallpaper)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "short name already taken")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": org})
}

type organizationUpdateRequest struct {
	Name        *string  `json:"name" form:"name"`
	CurrencyID  *string  `json:"currency" form:"currency"`
	PhoneNumber *string  `json:"phone_number" form:"phone_number"`
	Address     *string  `json:"address" form:"address"`
	ServiceFee  *float64 `json:"service_fee" form:"service_fee"`
	Description *string  `json:"description" form:"description"`
}

// UpdateOrganization applies a partial update. The short name is immutable
// since printed table QR codes link to it.
func (h *OrganizationHandler) UpdateOrganization(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var org models.Organization
	if err := h.db.First(&org, "id = ?", id).Error; err != nil {
		return notFound(err, "organization not found")
	}

	var req organizationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.CurrencyID != nil {
		currencyID, err := uuid.Parse(*req.CurrencyID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid currency")
		}
		if err := h.db.First(&models.Currency{}, "id = ?", currencyID).Error; err != nil {
			return notFound(err, "currency not found")
		}
		org.CurrencyID = currencyID
		org.Currency = nil
	}
	if req.PhoneNumber != nil {
		phone, err := utils.NormalizePhone(*req.PhoneNumber)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		org.PhoneNumber = phone
	}
	if req.Address != nil {
		org.Address = strings.TrimSpace(*req.Address)
	}
	if req.ServiceFee != nil {
		if *req.ServiceFee < 0 || *req.ServiceFee > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "service_fee must be between 0 and 100")
		}
		org.ServiceFee = *req.ServiceFee
	}
	if req.Description != nil {
		org.Description = *req.Description
	}

	var replaced []string
	for field, dir := range map[string]string{"logo": "logos", "wallpaper": "wallpapers"} {
		path, err := saveUpload(c, h.media, field, dir)
		if err != nil {
			return err
		}
		if path == "" {
			continue
		}
		if field == "logo" {
			replaced, org.Logo = append(replaced, org.Logo), path
		} else {
			replaced, org.Wallpaper = append(replaced, org.Wallpaper), path
		}
	}

	if err := h.db.Omit("Currency", "WiFi", "Products", "Tables").Save(&org).Error; err != nil {
		return err
	}
	for _, path := range replaced {
		removeMedia(h.media, h.logger, path)
	}

	return c.JSON(fiber.Map{"success": true, "data": org})
}
