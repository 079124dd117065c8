package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type OverviewController struct {
	Catalog *services.CatalogService
	Log     *utils.Logger
}

func NewOverviewController(catalog *services.CatalogService, log *utils.Logger) *OverviewController {
	return &OverviewController{Catalog: catalog, Log: log}
}

// SearchCourses returns course summaries matching search.
// sort: popularity (default), newest, rating
func (oc *OverviewController) SearchCourses(c *fiber.Ctx) error {
	courses, err := oc.Catalog.SearchCourses(c.UserContext(), c.Query("search"), c.Query("sort", "popularity"))
	if err != nil {
		return respondError(c, oc.Log, err)
	}
	return c.JSON(courses)
}
