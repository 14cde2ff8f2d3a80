package handlers

import (
	"github.com/gin-gonic/gin"
)

// Routes bundles the handlers mounted by RegisterRoutes.
type Routes struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Shipping *ShippingHandler
}

func RegisterRoutes(router gin.IRouter, r Routes) {
	router.GET("/health", HealthCheck)

	router.GET("/categories", r.Catalog.Categories)
	router.GET("/catalog", r.Catalog.List)
	router.GET("/catalog/:category_slug", r.Catalog.List)
	router.GET("/catalog/product/:product_slug", r.Catalog.Product)

	cart := router.Group("/cart")
	cart.GET("", r.Cart.Show)
	cart.POST("/add", r.Cart.Add)
	cart.POST("/change", r.Cart.Change)
	cart.POST("/remove", r.Cart.Remove)

	orders := router.Group("/orders")
	orders.GET("/create-order", r.Checkout.Form)
	orders.POST("/create-order", r.Checkout.Create)
	orders.GET("/success/:order_id", r.Orders.Success)
	orders.GET("/ajax/search-city", r.Shipping.SearchCity)
	orders.GET("/ajax/get-warehouses", r.Shipping.GetWarehouses)
}
