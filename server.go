package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/models"
	"bitbucket.org/logesys/invoices_backend/models/reports"
	"bitbucket.org/logesys/invoices_backend/utils"
	"bitbucket.org/logesys/invoices_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("invoices-backend")

// ingestHandler accepts either a structured invoice record or
// {"text": "..."} free text, in which case the first JSON object found in
// the text is extracted and parsed. Business-rule skips come back with
// success=false in the body; only parse/validation errors and store faults
// map to HTTP error codes.
func ingestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		ctx, span := tracer.Start(c.Request.Context(), "IngestInvoice")
		defer span.End()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload := body
		var wrapper struct {
			Text string `json:"text"`
		}
		if err := utils.UnmarshalFromJSON(body, &wrapper); err == nil && wrapper.Text != "" {
			payload, err = utils.ExtractJSONBlock(wrapper.Text)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		var input models.NewInvoice
		if err := utils.UnmarshalFromJSON(payload, &input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice record: " + err.Error()})
			return
		}
		if err := validate.Struct(&input); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		result, err := workflow.IngestInvoice(ctx, logger, &input)
		if err != nil {
			if errors.Is(err, workflow.ErrInvalidInvoiceDate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		fields := logrus.Fields{"waybill_number": input.WaybillNumber}
		if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
			fields["correlation_id"] = cid
		}
		if summary, err := utils.MarshalToJSON(result); err == nil {
			fields["result"] = summary
		}
		logger.WithFields(fields).Info("invoice ingestion finished")

		c.JSON(http.StatusOK, result)
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoices, err := models.GetInvoices(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func summaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		counters, err := reports.GetDashboardCounters(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, counters)
	}
}

func invoiceRegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=invoice-register.xlsx")
		if err := reports.WriteInvoiceRegister(c.Request.Context(), c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func createVendorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewVendor
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		vendor, err := models.CreateVendor(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, vendor)
	}
}

func listVendorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		vendors, err := models.GetVendors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, vendors)
	}
}

func createPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPurchaseOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		po, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, po)
	}
}

func listPaymentRemindersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reminders, err := models.GetPaymentReminders(c.Request.Context(), c.Query("waybill_number"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reminders)
	}
}

// validate mirrors gin's binding validator for payloads we unmarshal by hand
// (the free-text ingestion path).
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("x-correlation-id", cid)
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/invoices/ingest", ingestHandler())
	r.GET("/invoices", listInvoicesHandler())
	r.GET("/invoices/:id", getInvoiceHandler())
	r.GET("/summary", summaryHandler())
	r.GET("/reports/invoice-register", invoiceRegisterHandler())
	r.GET("/payment-reminders", listPaymentRemindersHandler())
	r.POST("/vendors", createVendorHandler())
	r.GET("/vendors", listVendorsHandler())
	r.POST("/purchase-orders", createPurchaseOrderHandler())

	config.ConnectDatabase()
	models.MigrateTable()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
		"port": port,
	}).Info("starting server")

	if err := r.Run(":" + port); err != nil {
		logger.Fatal(err)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
