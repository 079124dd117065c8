package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// CatalogController serves categories and subcategories.
type CatalogController struct {
	Catalog *services.CatalogService
	Log     *utils.Logger
}

func NewCatalogController(catalog *services.CatalogService, log *utils.Logger) *CatalogController {
	return &CatalogController{Catalog: catalog, Log: log}
}

func (cc *CatalogController) GetCategories(c *fiber.Ctx) error {
	categories, err := cc.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(categories)
}

func (cc *CatalogController) CreateCategory(c *fiber.Ctx) error {
	var input services.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	category, err := cc.Catalog.CreateCategory(c.UserContext(), input)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory also removes the category's subcategories and their courses.
func (cc *CatalogController) DeleteCategory(c *fiber.Ctx) error {
	if err := cc.Catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}

func (cc *CatalogController) GetSubcategories(c *fiber.Ctx) error {
	var categoryID uint
	if raw := c.Query("categoryId"); raw != "" {
		id, ok := services.ParseID(raw)
		if !ok {
			return utils.BadRequest(c, "Invalid category ID")
		}
		categoryID = id
	}
	subcategories, err := cc.Catalog.ListSubcategories(c.UserContext(), categoryID)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(subcategories)
}

func (cc *CatalogController) CreateSubcategory(c *fiber.Ctx) error {
	var input services.SubcategoryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	subcategory, err := cc.Catalog.CreateSubcategory(c.UserContext(), input)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(subcategory)
}

func (cc *CatalogController) DeleteSubcategory(c *fiber.Ctx) error {
	if err := cc.Catalog.DeleteSubcategory(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Subcategory deleted successfully"})
}
