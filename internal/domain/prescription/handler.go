package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyses", h.SubmitAnalysis)
	api.GET("/analyses/latest", h.GetLatestAnalysis)
	api.GET("/analyses/fingerprint/:hash", h.FindByFingerprint)
	api.GET("/analyses/:id", h.GetAnalysis)
	api.POST("/analyses/:id/ledger/refresh", h.RefreshLedgerStatus)
	api.GET("/analyses/:id/ledger", h.GetLedgerRecord)
	api.GET("/patients/history", h.GetPatientHistory)
}

// SubmitRequest is the analysis intake form.
type SubmitRequest struct {
	PatientInfo        SubmitPatient `json:"patientInfo" validate:"required"`
	PrescriptionText   string        `json:"prescriptionText" validate:"required"`
	CurrentMedications string        `json:"currentMedications"`
	Symptoms           string        `json:"symptoms"`
	Image              *SubmitImage  `json:"image"`
}

// SubmitPatient identifies the patient on the intake form.
type SubmitPatient struct {
	Name   string `json:"name" validate:"required"`
	Age    string `json:"age" validate:"required"`
	Gender string `json:"gender" validate:"required"`
}

// SubmitImage is an optional inline prescription image. The 5MB guidance
// for payload size is advisory; only the MIME type is checked here.
type SubmitImage struct {
	MimeType string `json:"mimeType" validate:"required,oneof=image/png image/jpeg image/webp"`
	Data     string `json:"data" validate:"required,base64"`
}

func (h *Handler) SubmitAnalysis(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	areq := AnalysisRequest{
		PrescriptionText: req.PrescriptionText,
		Patient: PatientInfo{
			Name:   req.PatientInfo.Name,
			Age:    req.PatientInfo.Age,
			Gender: req.PatientInfo.Gender,
		},
		CurrentMedications: req.CurrentMedications,
		Symptoms:           req.Symptoms,
	}
	if req.Image != nil {
		areq.Image = &ImageInput{MimeType: req.Image.MimeType, Data: req.Image.Data}
	}

	result, err := h.svc.Submit(c.Request().Context(), areq)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetLatestAnalysis(c echo.Context) error {
	result, err := h.svc.Latest(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetAnalysis(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RefreshLedgerStatus(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.RefreshLedgerStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetLedgerRecord(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.LedgerRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) FindByFingerprint(c echo.Context) error {
	result, err := h.svc.FindByFingerprint(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return httpError(err)
	}
	if result == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no record matches that fingerprint")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPatientHistory(c echo.Context) error {
	patient := PatientInfo{
		Name:   c.QueryParam("name"),
		Age:    c.QueryParam("age"),
		Gender: c.QueryParam("gender"),
	}
	if patient.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	pg := pagination.FromContext(c)
	history := h.svc.History(c.Request().Context(), patient)
	start, end := pg.Window(len(history))
	return c.JSON(http.StatusOK, pagination.NewResponse(history[start:end], len(history), pg.Limit, pg.Offset))
}

// httpError maps domain errors onto HTTP statuses: missing records to 404,
// model output that failed validation to 422, and any other analysis
// failure to 502.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, ErrInvalidAIResponse):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "model returned an invalid analysis")
	case errors.Is(err, ErrAnalysisFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "analysis failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
