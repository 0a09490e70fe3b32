package http

import (
	"net/http"

	"supplychain/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger(handler.log))
	r.Use(Recoverer(handler.log))
	r.Use(Timeout(handler.requestTimeout))
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	purchasing := requireRole(domain.RoleAdmin, domain.RolePurchaser)
	selling := requireRole(domain.RoleAdmin, domain.RoleSales)
	adminOnly := requireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handler.authenticate)

		r.Get("/warnings", handler.ListWarnings)

		r.Group(func(r chi.Router) {
			r.Use(purchasing)

			r.Get("/purchase-orders", handler.ListPurchaseOrders)
			r.Get("/purchase-orders/generate-no", handler.GeneratePurchaseOrderNo)
			r.Post("/purchase-orders", handler.CreatePurchaseOrder)
			r.Post("/purchase-orders/import-excel", handler.ImportPurchaseOrdersExcel)
			r.Get("/purchase-orders/{id}", handler.GetPurchaseOrder)
			r.Put("/purchase-orders/{id}", handler.UpdatePurchaseOrder)
			r.Post("/purchase-orders/{id}/confirm", handler.ConfirmPurchaseOrder)
			r.Delete("/purchase-orders/{id}", handler.DeletePurchaseOrder)

			r.Get("/materials", handler.ListMaterials)
			r.Get("/materials/buyers", handler.ListBuyers)
			r.Get("/materials/{id}", handler.GetMaterial)
			r.Post("/materials", handler.CreateMaterial)
			r.Put("/materials/{id}", handler.UpdateMaterial)
			r.Delete("/materials/{id}", handler.DeleteMaterial)

			r.Get("/suppliers", handler.ListSuppliers)
			r.Get("/suppliers/{id}", handler.GetSupplier)
			r.Post("/suppliers", handler.CreateSupplier)
			r.Put("/suppliers/{id}", handler.UpdateSupplier)
			r.Delete("/suppliers/{id}", handler.DeleteSupplier)

			r.Get("/warehouses", handler.ListWarehouses)
			r.Get("/warehouses/{id}", handler.GetWarehouse)
			r.Post("/warehouses", handler.CreateWarehouse)
			r.Put("/warehouses/{id}", handler.UpdateWarehouse)
			r.Delete("/warehouses/{id}", handler.DeleteWarehouse)

			r.Get("/inventory", handler.ListInventory)
			r.Post("/inventory", handler.CreateInventory)
			r.Get("/inventory/{id}", handler.GetInventory)
			r.Put("/inventory/{id}", handler.UpdateInventory)
			r.Delete("/inventory/{id}", handler.DeleteInventory)
			r.Post("/inventory/{id}/adjust", handler.AdjustInventory)
			r.Get("/inventory/{id}/movements", handler.ListInventoryMovements)
		})

		r.Group(func(r chi.Router) {
			r.Use(selling)

			r.Get("/sales-orders", handler.ListSalesOrders)
			r.Get("/sales-orders/sales-persons", handler.ListSalesPersons)
			r.Get("/sales-orders/generate-no", handler.GenerateSalesOrderNo)
			r.Post("/sales-orders", handler.CreateSalesOrder)
			r.Get("/sales-orders/{id}", handler.GetSalesOrder)
			r.Put("/sales-orders/{id}", handler.UpdateSalesOrder)
			r.Delete("/sales-orders/{id}", handler.DeleteSalesOrder)

			r.Get("/customers", handler.ListCustomers)
			r.Post("/customers", handler.CreateCustomer)
		})

		r.Get("/products", handler.ListProducts)
		r.Get("/products/{id}", handler.GetProduct)
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Post("/products", handler.CreateProduct)
			r.Put("/products/{id}", handler.UpdateProduct)
			r.Put("/products/{id}/bom", handler.ReplaceBOM)
			r.Delete("/products/{id}", handler.DeleteProduct)
		})
	})

	return r
}
