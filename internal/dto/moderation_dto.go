package dto

import "github.com/coriplus/coriplus/internal/models"

type CreateReportRequest struct {
	MediaType models.MediaType    `json:"media_type"`
	MediaID   uint                `json:"media_id"`
	Reason    models.ReportReason `json:"reason"`
}

// ReviewReportRequest carries the review decision. JSON clients send
// Decision; HTML forms send exactly one of the take_down / discard fields.
type ReviewReportRequest struct {
	Decision string `json:"decision" form:"decision"`
	TakeDown string `json:"take_down" form:"take_down"`
	Discard  string `json:"discard" form:"discard"`
}

type ReportListResponse struct {
	Reports []models.Report                `json:"reports"`
	Total   int64                          `json:"total"`
	Limit   int                            `json:"limit"`
	Offset  int                            `json:"offset"`
	Reasons map[models.ReportReason]string `json:"report_reasons"`
}

type ReportDetailResponse struct {
	Report  *models.Report                 `json:"report"`
	Reasons map[models.ReportReason]string `json:"report_reasons"`
}
