package dto

// ReportQuery captures GET /reports/summary parameters.
type ReportQuery struct {
	Range string `query:"range"`
}
