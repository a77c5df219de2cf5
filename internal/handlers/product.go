package handlers

import (
	"fmt"
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

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db     *gorm.DB
	media  *services.MediaStorage
	logger *slog.Logger
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, media *services.MediaStorage, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{db: db, media: media, logger: logger}
}

// RegisterProductRoutes mounts the public product routes and the manager-only
// write routes behind guard.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router, guard ...fiber.Handler) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)

	write := append(append([]fiber.Handler{}, guard...), h.CreateProduct)
	router.Post("/", write...)
	write = append(append([]fiber.Handler{}, guard...), h.UpdateProduct)
	router.Put("/:id", write...)
	router.Patch("/:id", write...)
	write = append(append([]fiber.Handler{}, guard...), h.DeleteProduct)
	router.Delete("/:id", write...)
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if v := c.Query("organization"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid organization")
		}
		query = query.Where("organization_id = ?", id)
	}

	if v := c.Query("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category")
		}
		query = query.Where("category_id = ?", id)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Images").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product with relations.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Category").
		Preload("Images").
		First(&product, "id = ?", id).Error; err != nil {
		return notFound(err, "product not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	OrganizationID string   `json:"organization" form:"organization"`
	CategoryID     string   `json:"category" form:"category"`
	Name           string   `json:"name" form:"name"`
	Description    string   `json:"description" form:"description"`
	Weight         *float64 `json:"weight" form:"weight"`
	Price          float64  `json:"price" form:"price"`
	IsActive       *bool    `json:"is_active" form:"is_active"`
}

func (r productRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrganizationID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.CategoryID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Price, validation.Required, validation.Min(0.01)),
	)
}

// CreateProduct stores a product with up to MaxProductImages "images" uploads.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	product := models.Product{
		OrganizationID: uuid.MustParse(req.OrganizationID),
		CategoryID:     uuid.MustParse(req.CategoryID),
		Name:           req.Name,
		Description:    req.Description,
		Weight:         req.Weight,
		Price:          req.Price,
		IsActive:       true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := h.ensureRelations(product.OrganizationID, product.CategoryID); err != nil {
		return err
	}

	images, err := h.saveImages(c, 0)
	if err != nil {
		return err
	}
	product.Images = images

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		// gorm skips false on create because of the column default.
		return tx.Model(&product).Update("is_active", product.IsActive).Error
	})
	if err != nil {
		h.dropImages(images)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

type productUpdateRequest struct {
	CategoryID  *string  `json:"category" form:"category"`
	Name        *string  `json:"name" form:"name"`
	Description *string  `json:"description" form:"description"`
	Weight      *float64 `json:"weight" form:"weight"`
	Price       *float64 `json:"price" form:"price"`
	IsActive    *bool    `json:"is_active" form:"is_active"`
}

// UpdateProduct applies a partial update. Uploaded "images" are appended while
// the product stays within MaxProductImages.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		return notFound(err, "product not found")
	}

	var req productUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category")
		}
		if err := h.ensureRelations(product.OrganizationID, categoryID); err != nil {
			return err
		}
		product.CategoryID = categoryID
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Weight != nil {
		product.Weight = req.Weight
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price must be positive")
		}
		product.Price = *req.Price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	images, err := h.saveImages(c, len(product.Images))
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images", "Category", "Organization").Save(&product).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ProductID = product.ID
			if err := tx.Create(&images[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.dropImages(images)
		return err
	}
	product.Images = append(product.Images, images...)

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product and its images.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		return notFound(err, "product not found")
	}

	var ordered int64
	if err := h.db.Model(&models.ProductOrder{}).Where("product_id = ?", id).Count(&ordered).Error; err != nil {
		return err
	}
	if ordered > 0 {
		return fiber.NewError(fiber.StatusConflict, "product has orders, deactivate it instead")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return err
	}
	h.dropImages(product.Images)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) ensureRelations(orgID, categoryID uuid.UUID) error {
	if err := h.db.First(&models.Organization{}, "id = ?", orgID).Error; err != nil {
		return notFound(err, "organization not found")
	}
	if err := h.db.First(&models.Category{}, "id = ?", categoryID).Error; err != nil {
		return notFound(err, "category not found")
	}
	return nil
}

// saveImages stores the "images" uploads of a product that already has existing pictures.
func (h *ProductHandler) saveImages(c *fiber.Ctx, existing int) ([]models.ProductImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File["images"]
	if existing+len(files) > models.MaxProductImages {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("a product can have at most %d images", models.MaxProductImages))
	}

	images := make([]models.ProductImage, 0, len(files))
	for _, file := range files {
		path, err := storeFile(c, h.media, file, "products")
		if err != nil {
			h.dropImages(images)
			return nil, err
		}
		images = append(images, models.ProductImage{Image: path})
	}
	return images, nil
}

func (h *ProductHandler) dropImages(images []models.ProductImage) {
	for _, img := range images {
		removeMedia(h.media, h.logger, img.Image)
	}
}
