package handler

import (
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/internal/estate/service"
	"estate_analyzer/internal/estate/transport"
	"estate_analyzer/platform/apperr"
	"estate_analyzer/platform/httpkit"
	"estate_analyzer/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for estate evaluations
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new estates handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterEstateRoutes registers the estate routes
func (h *Handler) RegisterEstateRoutes(rg *gin.RouterGroup) {
	rg.GET("/options", h.Options)
	rg.POST("/evaluate", h.Evaluate)
	rg.POST("/sensitivity", h.Sensitivity)
}

// RegisterLoanRoutes registers the loan routes
func (h *Handler) RegisterLoanRoutes(rg *gin.RouterGroup) {
	rg.POST("/schedule", h.Schedule)
}

// Evaluate handles POST /api/v1/estates/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var req transport.EvaluateRequest
	if !h.bind(c, &req) {
		return
	}

	in, err := req.ToEvaluateInput(h.svc.Assumptions())
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.Evaluate(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Sensitivity handles POST /api/v1/estates/sensitivity
func (h *Handler) Sensitivity(c *gin.Context) {
	var req transport.SensitivityRequest
	if !h.bind(c, &req) {
		return
	}

	in, err := req.Estate.ToEvaluateInput(h.svc.Assumptions())
	if httpkit.HandleError(c, err) {
		return
	}

	scenarios, err := h.svc.Sensitivity(c.Request.Context(), in, req.RateShifts)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SensitivityResponse{BaseRate: in.LoanInfo.Rate, Scenarios: scenarios})
}

// Schedule handles POST /api/v1/loans/schedule
func (h *Handler) Schedule(c *gin.Context) {
	var req transport.ScheduleRequest
	if !h.bind(c, &req) {
		return
	}

	loan, err := req.Loan.ToDomain()
	if httpkit.HandleError(c, err) {
		return
	}
	info, err := req.LoanInfo.ToDomain()
	if httpkit.HandleError(c, err) {
		return
	}

	report, err := h.svc.Schedule(c.Request.Context(), loan, info)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewScheduleResponse(report))
}

// Options handles GET /api/v1/estates/options
// Labels follow the lang query parameter, then Accept-Language.
func (h *Handler) Options(c *gin.Context) {
	pref := c.Query("lang")
	if pref == "" {
		pref = c.GetHeader("Accept-Language")
	}
	lang := domain.MatchLanguage(pref)

	resp := transport.OptionsResponse{Language: lang.String()}
	for _, v := range domain.BuildingTypes {
		resp.BuildingTypes = append(resp.BuildingTypes, transport.Option{Value: string(v), Label: domain.Label(string(v), lang)})
	}
	for _, v := range domain.LoanTypes {
		resp.LoanTypes = append(resp.LoanTypes, transport.Option{Value: string(v), Label: domain.Label(string(v), lang)})
	}
	for _, v := range domain.LoanPayTypes {
		resp.LoanPayTypes = append(resp.LoanPayTypes, transport.Option{Value: string(v), Label: domain.Label(string(v), lang)})
	}

	httpkit.OK(c, resp)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindBadRequest, msgInvalidRequest, err))
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, msgValidationFailed, err).WithDetails(validator.FieldErrors(err)))
		return false
	}
	return true
}
