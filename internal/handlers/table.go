package handlers

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/services"
)

const maxTablesPerRequest = 200

// TableHandler manages organization tables and their QR codes.
type TableHandler struct {
	db     *gorm.DB
	qr     *services.QRService
	logger *slog.Logger
}

// NewTableHandler constructs TableHandler.
func NewTableHandler(db *gorm.DB, qr *services.QRService, logger *slog.Logger) *TableHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableHandler{db: db, qr: qr, logger: logger}
}

// ListTables returns the tables of the organization given by the "organization" query.
func (h *TableHandler) ListTables(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Query("organization"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "organization query parameter is required")
	}

	var tables []models.Table
	if err := h.db.Where("organization_id = ?", orgID).Order("number asc").Find(&tables).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": tables})
}

type createTablesRequest struct {
	OrganizationID string `json:"organization_id"`
	TableCount     int    `json:"table_count"`
}

func (r createTablesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrganizationID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.TableCount, validation.Required, validation.Min(1), validation.Max(maxTablesPerRequest)),
	)
}

// CreateTables adds table_count tables numbered after the organization's
// highest table number, each with a QR code linking to its menu.
func (h *TableHandler) CreateTables(c *fiber.Ctx) error {
	var req createTablesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}
	orgID := uuid.MustParse(req.OrganizationID)

	var created []models.Table
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&org, "id = ?", orgID).Error; err != nil {
			return notFound(err, "organization not found")
		}

		var last int
		if err := tx.Model(&models.Table{}).
			Where("organization_id = ?", orgID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		created = make([]models.Table, 0, req.TableCount)
		for n := last + 1; n <= last+req.TableCount; n++ {
			qr, err := h.qr.TableQR(org.ShortName, n)
			if err != nil {
				return err
			}
			created = append(created, models.Table{OrganizationID: orgID, Number: n, QRCode: qr})
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return err
	}

	h.logger.Info("tables created",
		slog.String("organization_id", orgID.String()),
		slog.Int("count", len(created)),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": created})
}

// DeleteTable removes a table without orders. Its QR file is left in place.
func (h *TableHandler) DeleteTable(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var orders int64
	if err := h.db.Model(&models.Order{}).Where("table_id = ?", id).Count(&orders).Error; err != nil {
		return err
	}
	if orders > 0 {
		return fiber.NewError(fiber.StatusConflict, "table has orders")
	}

	result := h.db.Delete(&models.Table{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "table not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
