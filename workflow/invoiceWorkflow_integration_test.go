package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/logesys/invoices_backend/config"
	"bitbucket.org/logesys/invoices_backend/models"
	"bitbucket.org/logesys/invoices_backend/utils"
	"github.com/shopspring/decimal"
)

func TestIngestInvoice_FullScenario(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.ConnectDatabase.
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "invoices_test")

	config.ConnectDatabase()
	models.MigrateTable()

	logger := config.GetLogger()
	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabase")
	}

	vendor, err := models.CreateVendor(ctx, &models.NewVendor{Name: "Acme", CreditPeriodDays: 30})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		VendorId:        vendor.ID,
		ItemDescription: "Widgets",
		OrderedQuantity: 10,
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}

	input := &models.NewInvoice{
		WaybillNumber:     "AWB123",
		DateOfExportation: "01/01/2024",
		BillToName:        "Acme",
		BillToAddress:     "1 Acme Way",
		ShipToName:        "Receiver Co",
		ShipToAddress:     "9 Dock Road",
		LineItems: []models.NewInvoiceLineItem{
			{
				ItemDescription: "Widgets",
				Quantity:        decimal.NewFromInt(10),
				UnitPrice:       decimal.NewFromInt(5),
				Total:           decimal.NewFromInt(50),
			},
		},
	}

	result, err := IngestInvoice(ctx, logger, input)
	if err != nil {
		t.Fatalf("IngestInvoice: %v", err)
	}
	if !result.Success || result.Duplicate {
		t.Fatalf("expected successful ingestion, got %+v", result)
	}

	// One invoice with one line item.
	invoiceCount, err := models.GetInvoiceCount(ctx)
	if err != nil {
		t.Fatalf("GetInvoiceCount: %v", err)
	}
	if invoiceCount != 1 {
		t.Fatalf("expected 1 invoice, got %d", invoiceCount)
	}
	invoice, err := models.GetInvoice(ctx, result.InvoiceId)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if len(invoice.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(invoice.LineItems))
	}

	// Reminder due 30 calendar days after 01/01/2024.
	if result.LastReminder == nil {
		t.Fatalf("expected a derived reminder in the result")
	}
	if got := result.LastReminder.DueDate.Format("2006-01-02"); got != "2024-01-31" {
		t.Errorf("reminder due date = %s, want 2024-01-31", got)
	}
	reminders, err := models.GetPaymentReminders(ctx, "AWB123")
	if err != nil {
		t.Fatalf("GetPaymentReminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 payment reminder, got %d", len(reminders))
	}

	// Purchase order fully received, receipt recorded.
	var updatedPo models.PurchaseOrder
	if err := db.First(&updatedPo, po.ID).Error; err != nil {
		t.Fatalf("reload purchase order: %v", err)
	}
	if updatedPo.ReceivedQuantity != 10 {
		t.Errorf("received quantity = %d, want 10", updatedPo.ReceivedQuantity)
	}
	if !updatedPo.IsFulfilled() {
		t.Errorf("purchase order should classify as fulfilled")
	}
	exists, err := models.DeliveryReceiptExists(db, po.ID, "AWB123")
	if err != nil {
		t.Fatalf("DeliveryReceiptExists: %v", err)
	}
	if !exists {
		t.Errorf("expected delivery receipt for (po=%d, AWB123)", po.ID)
	}

	// Same waybill resubmitted: nothing written, duplicate advisory.
	second, err := IngestInvoice(ctx, logger, input)
	if err != nil {
		t.Fatalf("IngestInvoice (duplicate): %v", err)
	}
	if second.Success || !second.Duplicate {
		t.Fatalf("expected duplicate skip, got %+v", second)
	}
	invoiceCount, _ = models.GetInvoiceCount(ctx)
	if invoiceCount != 1 {
		t.Errorf("duplicate ingestion changed invoice count: %d", invoiceCount)
	}
	if err := db.First(&updatedPo, po.ID).Error; err != nil {
		t.Fatalf("reload purchase order: %v", err)
	}
	if updatedPo.ReceivedQuantity != 10 {
		t.Errorf("duplicate ingestion changed received quantity: %d", updatedPo.ReceivedQuantity)
	}

	// Re-reconciling the same (purchase order, waybill) pair is a no-op.
	redeliveryDate, err := utils.ParseDayMonthYear("02/01/2024")
	if err != nil {
		t.Fatalf("ParseDayMonthYear: %v", err)
	}
	tx := db.Begin()
	res := &IngestResult{Messages: []string{}}
	if err := reconcileDelivery(ctx, tx, logger, res, "Acme", "Widgets",
		decimal.NewFromInt(10), "AWB123", redeliveryDate); err != nil {
		tx.Rollback()
		t.Fatalf("reconcileDelivery: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := db.First(&updatedPo, po.ID).Error; err != nil {
		t.Fatalf("reload purchase order: %v", err)
	}
	if updatedPo.ReceivedQuantity != 10 {
		t.Errorf("repeated reconciliation double-counted: received=%d", updatedPo.ReceivedQuantity)
	}
	if len(res.Messages) != 1 || !strings.Contains(res.Messages[0], "already recorded") {
		t.Errorf("expected already-recorded advisory, got %v", res.Messages)
	}

	// Unknown vendor: line item still ingests, no reminder, advisory message.
	unknown := &models.NewInvoice{
		WaybillNumber:     "AWB900",
		DateOfExportation: "05/02/2024",
		BillToName:        "Nobody Inc",
		LineItems: []models.NewInvoiceLineItem{
			{ItemDescription: "Gadgets", Quantity: decimal.NewFromInt(3), Total: decimal.NewFromInt(30)},
		},
	}
	third, err := IngestInvoice(ctx, logger, unknown)
	if err != nil {
		t.Fatalf("IngestInvoice (unknown vendor): %v", err)
	}
	if !third.Success {
		t.Fatalf("unknown vendor must not block ingestion: %+v", third)
	}
	if third.LastReminder != nil {
		t.Errorf("no reminder expected for unmatched vendor")
	}
	var advisory bool
	for _, msg := range third.Messages {
		if strings.Contains(msg, "No vendor found with name: Nobody Inc") {
			advisory = true
		}
	}
	if !advisory {
		t.Errorf("expected unmatched-vendor advisory, got %v", third.Messages)
	}
	remindersUnknown, _ := models.GetPaymentReminders(ctx, "AWB900")
	if len(remindersUnknown) != 0 {
		t.Errorf("expected no reminders for AWB900, got %d", len(remindersUnknown))
	}

	// Listing returns both invoices, newest date of exportation first.
	invoices, err := models.GetInvoices(ctx)
	if err != nil {
		t.Fatalf("GetInvoices: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(invoices))
	}
	if invoices[0].WaybillNumber != "AWB900" || invoices[1].WaybillNumber != "AWB123" {
		t.Errorf("unexpected listing order: %s, %s", invoices[0].WaybillNumber, invoices[1].WaybillNumber)
	}
	if _, err := models.GetInvoice(ctx, 999999); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Errorf("missing invoice lookup = %v, want ErrorRecordNotFound", err)
	}

	// A store fault mid-ingestion rolls the whole call back: the header,
	// the first line item's reminder and its delivery receipt all vanish.
	// The second line item's description overflows its varchar(255) column.
	faulty := &models.NewInvoice{
		WaybillNumber:     "AWB777",
		DateOfExportation: "10/03/2024",
		BillToName:        "Acme",
		LineItems: []models.NewInvoiceLineItem{
			{ItemDescription: "Widgets", Quantity: decimal.NewFromInt(5), Total: decimal.NewFromInt(25)},
			{ItemDescription: strings.Repeat("x", 300), Quantity: decimal.NewFromInt(1), Total: decimal.NewFromInt(5)},
		},
	}
	if _, err := IngestInvoice(ctx, logger, faulty); err == nil {
		t.Fatalf("expected store fault for oversized item description")
	}
	invoiceCount, err = models.GetInvoiceCount(ctx)
	if err != nil {
		t.Fatalf("GetInvoiceCount: %v", err)
	}
	if invoiceCount != 2 {
		t.Errorf("failed ingestion left a partial invoice: count=%d", invoiceCount)
	}
	remindersFaulty, err := models.GetPaymentReminders(ctx, "AWB777")
	if err != nil {
		t.Fatalf("GetPaymentReminders: %v", err)
	}
	if len(remindersFaulty) != 0 {
		t.Errorf("failed ingestion left %d reminders behind", len(remindersFaulty))
	}
	receiptLeft, err := models.DeliveryReceiptExists(db, po.ID, "AWB777")
	if err != nil {
		t.Fatalf("DeliveryReceiptExists: %v", err)
	}
	if receiptLeft {
		t.Errorf("failed ingestion left a delivery receipt behind")
	}
	if err := db.First(&updatedPo, po.ID).Error; err != nil {
		t.Fatalf("reload purchase order: %v", err)
	}
	if updatedPo.ReceivedQuantity != 10 {
		t.Errorf("failed ingestion changed received quantity: %d", updatedPo.ReceivedQuantity)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("invoices-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=invoices_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
