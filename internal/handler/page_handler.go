package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "farmacia-web",
	})
}

// About returns the static about page
func (h *Handler) About(c echo.Context) error {
	_, products, branches := h.catalog.Counts()

	return c.JSON(http.StatusOK, echo.Map{
		"title":   "Sobre Nosotros",
		"tagline": "Cuidamos tu salud con productos de calidad, atención personalizada y compromiso con tu bienestar.",
		"story": []string{
			"FarmaSalud nació en 2010 con un propósito claro: brindar acceso fácil, seguro y confiable a productos farmacéuticos y de cuidado personal en Argentina.",
			"No somos solo una farmacia: somos tu aliado en el cuidado diario de tu salud y la de tu familia.",
		},
		"values": []echo.Map{
			{"title": "Calidad garantizada", "description": "Trabajamos únicamente con proveedores certificados y garantizamos la trazabilidad de todos nuestros productos."},
			{"title": "Atención personalizada", "description": "Escuchamos, asesoramos y acompañamos a cada cliente con empatía y profesionalismo."},
			{"title": "Envíos a domicilio", "description": "Envíos gratuitos en compras mayores a $15.000."},
		},
		"stats": echo.Map{
			"products": products,
			"branches": branches,
		},
	})
}

// NotFoundAPI answers unknown API routes
func NotFoundAPI(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"error": "Route not found",
	})
}

// RedirectHome sends unknown pages to the home page
func RedirectHome(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/")
}
