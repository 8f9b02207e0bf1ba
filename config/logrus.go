package config

import (
	"context"
	"os"

	"bitbucket.org/logesys/invoices_backend/utils"
	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// LogError tags the entry with the request's correlation id when the
// context carries one, so one ingestion's log lines group together.
func LogError(ctx context.Context, logger *logrus.Logger, moduleName string, funcName string, contextInfo string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  contextInfo,
	}
	if data != nil {
		fields["data"] = data
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = cid
	}
	logger.WithFields(fields).Error(err.Error())
}

// LogSkip records a business-rule skip (duplicate invoice, unmatched vendor,
// missing purchase order). These are advisory, not faults.
func LogSkip(ctx context.Context, logger *logrus.Logger, moduleName string, funcName string, msg string, data any) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"data":     data,
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = cid
	}
	logger.WithFields(fields).Warn(msg)
}
