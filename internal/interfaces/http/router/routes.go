package router

import (
	"github.com/schoolfee/backend/internal/interfaces/http/handler"
)

// FeeRoutes returns the /fees group: catalog, bills and payments
func FeeRoutes(catalog *handler.CatalogHandler, bills *handler.BillHandler, payments *handler.PaymentHandler) *DomainGroup {
	fees := NewDomainGroup("fees", "/fees")

	fees.Group("categories", "/categories").
		POST("", catalog.CreateCategory).
		GET("", catalog.ListCategories).
		GET("/:id", catalog.GetCategory).
		PUT("/:id", catalog.UpdateCategory).
		DELETE("/:id", catalog.DeleteCategory)

	fees.Group("class-fees", "/class-fees").
		POST("", catalog.CreateClassFee).
		GET("", catalog.ListClassFees).
		GET("/applicable", catalog.ApplicableClassFees).
		GET("/:id", catalog.GetClassFee).
		POST("/:id/hike", catalog.HikeClassFee).
		GET("/:id/versions", catalog.ClassFeeVersions)

	fees.Group("transport-routes", "/transport-routes").
		POST("", catalog.CreateRoute).
		GET("", catalog.ListRoutes).
		GET("/:id", catalog.GetRoute)

	fees.Group("transport-fees", "/transport-fees").
		POST("", catalog.CreateTransportFee).
		GET("", catalog.ListTransportFees).
		GET("/applicable", catalog.ApplicableTransportFees).
		GET("/:id", catalog.GetTransportFee).
		POST("/:id/hike", catalog.HikeTransportFee).
		GET("/:id/versions", catalog.TransportFeeVersions)

	fees.Group("optional-fees", "/optional-fees").
		POST("", catalog.CreateOptionalFee).
		GET("", catalog.ListOptionalFees).
		GET("/applicable", catalog.ApplicableOptionalFees).
		GET("/:id", catalog.GetOptionalFee).
		POST("/:id/hike", catalog.HikeOptionalFee).
		GET("/:id/versions", catalog.OptionalFeeVersions)

	fees.Group("custom-fees", "/custom-fees").
		POST("", catalog.CreateCustomFee).
		GET("", catalog.ListCustomFees).
		DELETE("/:id", catalog.DeleteCustomFee)

	fees.Group("bills", "/bills").
		POST("/generate", bills.Generate).
		GET("", bills.List).
		GET("/summary", bills.Summary).
		GET("/:id", bills.Get).
		GET("/:id/payments", bills.Payments)

	fees.Group("payments", "/payments").
		POST("", payments.Record).
		GET("/:id", payments.Get)

	return fees
}

// SalaryRoutes returns the /salary group
func SalaryRoutes(h *handler.SalaryHandler) *DomainGroup {
	salary := NewDomainGroup("salary", "/salary")

	salary.Group("structure", "/structure").
		POST("", h.UpsertStructure).
		GET("/:teacher_id", h.GetStructure).
		GET("/:teacher_id/versions", h.StructureVersions)

	salary.POST("/generate", h.Generate)

	salary.Group("records", "/records").
		GET("", h.ListRecords).
		GET("/:id", h.GetRecord).
		PUT("/:id/approve", h.Approve).
		PUT("/:id/mark-paid", h.MarkPaid).
		POST("/:id/payments", h.ApplyPayment)

	salary.GET("/unpaid", h.Unpaid)

	return salary
}

// DirectoryRoutes returns the /directory group used by the school system to
// push student and teacher changes
func DirectoryRoutes(h *handler.DirectoryHandler) *DomainGroup {
	directory := NewDomainGroup("directory", "/directory")

	directory.Group("students", "/students").
		PUT("/:id", h.UpsertStudent).
		GET("/:id", h.GetStudent)

	directory.Group("teachers", "/teachers").
		PUT("/:id", h.UpsertTeacher).
		GET("/:id", h.GetTeacher).
		PUT("/:id/attendance", h.UpsertAttendance)

	return directory
}
