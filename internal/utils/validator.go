package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/processor"
)

// Custom validation functions

func ValidateReportType(fl validator.FieldLevel) bool {
	validTypes := []models.ReportType{
		models.ReportStudentPerformance,
		models.ReportCourseAnalytics,
		models.ReportAttendanceSummary,
		models.ReportGradeDistribution,
		models.ReportEngagementMetrics,
		models.ReportFinancialSummary,
		models.ReportComparativeAnalysis,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateWidgetType(fl validator.FieldLevel) bool {
	validTypes := []models.WidgetType{
		models.WidgetMetricCard,
		models.WidgetChart,
		models.WidgetTable,
		models.WidgetProgressBar,
		models.WidgetList,
		models.WidgetGauge,
		models.WidgetHeatmap,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateExportFormat(fl validator.FieldLevel) bool {
	validFormats := []models.ExportFormat{
		models.FormatCSV,
		models.FormatJSON,
		models.FormatXLSX,
		models.FormatDocument,
	}

	value := fl.Field().String()
	for _, validFormat := range validFormats {
		if string(validFormat) == value {
			return true
		}
	}
	return false
}

func ValidateFilterOperator(fl validator.FieldLevel) bool {
	validOperators := []processor.FilterOperator{
		processor.OpEquals,
		processor.OpContains,
		processor.OpGreaterThan,
		processor.OpLessThan,
		processor.OpBetween,
		processor.OpIn,
	}

	value := fl.Field().String()
	for _, validOperator := range validOperators {
		if string(validOperator) == value {
			return true
		}
	}
	return false
}

func ValidateDashboardRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleAdmin,
		models.RoleTeacher,
		models.RoleStudent,
		models.RoleFinance,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("report_type", ValidateReportType)
	validate.RegisterValidation("widget_type", ValidateWidgetType)
	validate.RegisterValidation("export_format", ValidateExportFormat)
	validate.RegisterValidation("filter_operator", ValidateFilterOperator)
	validate.RegisterValidation("dashboard_role", ValidateDashboardRole)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NewValidator builds a validator with the engine's custom rules installed.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}
