package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fxpulse/internal/domain/dto"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/service"
)

const (
	defaultLimit = 10
	maxLimit     = 500
	defaultRuns  = 5
	maxRuns      = 100
)

var pairPattern = regexp.MustCompile(`^[A-Z0-9]{3,12}$`)

// Handler provides HTTP handlers for the sentiment read endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Call the read service
//   - Translate records into response DTOs
type Handler struct {
	svc service.SentimentService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.SentimentService) *Handler {
	return &Handler{svc: svc}
}

// GetSentiment handles GET /api/v1/sentiment requests.
//
// Query Parameters:
//   - pair (string, required): instrument, e.g. "EURUSD" (case-insensitive).
//   - limit (int, optional): number of entries, 1..500, default 10.
//
// GetSentiment godoc
// @Summary      Latest sentiment for a pair
// @Description  Returns the most recent captured long/short positioning for the pair, newest first
// @Tags         sentiment
// @Produce      json
// @Param        pair   query     string  true   "Instrument" example(EURUSD)
// @Param        limit  query     int     false  "Number of entries (1-500)" example(10)
// @Success      200    {object}  dto.SentimentResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse      "Bad Request"
// @Failure      404    {object}  dto.ErrorResponse      "Not Found"
// @Failure      503    {object}  dto.ErrorResponse      "Dataset unavailable"
// @Router       /api/v1/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	pair := strings.ToUpper(strings.TrimSpace(c.Query("pair")))
	if pair == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("pair is required", nil))
		return
	}
	if !pairPattern.MatchString(pair) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid pair", nil))
		return
	}
	limit, err := intParam(c, "limit", defaultLimit, maxLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid limit, expected 1-500", err))
		return
	}

	records, err := h.svc.Latest(c.Request.Context(), models.InstrumentID(pair), limit)
	if errors.Is(err, service.ErrNoData) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no data found", nil))
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("dataset unavailable", err))
		return
	}

	resp := dto.SentimentResponse{Pair: pair, Count: len(records), Entries: make([]dto.SentimentEntry, 0, len(records))}
	for _, r := range records {
		resp.Entries = append(resp.Entries, toEntry(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatus handles GET /api/v1/status requests.
//
// GetStatus godoc
// @Summary      Dataset and run status
// @Description  Returns dataset size, instruments seen, last capture and recent runs
// @Tags         status
// @Produce      json
// @Param        runs  query     int  false  "Number of recent runs (1-100)" example(5)
// @Success      200   {object}  dto.StatusResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse   "Bad Request"
// @Failure      503   {object}  dto.ErrorResponse   "Dataset unavailable"
// @Router       /api/v1/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	runs, err := intParam(c, "runs", defaultRuns, maxRuns)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid runs, expected 1-100", err))
		return
	}

	st, err := h.svc.Status(c.Request.Context(), runs)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("dataset unavailable", err))
		return
	}

	resp := dto.StatusResponse{
		DatasetRows: st.DatasetRows,
		Instruments: make([]string, 0, len(st.Instruments)),
		RecentRuns:  st.RecentRuns,
		RunLog:      st.RunLog,
	}
	if resp.RecentRuns == nil {
		resp.RecentRuns = []models.RunResult{}
	}
	for _, id := range st.Instruments {
		resp.Instruments = append(resp.Instruments, string(id))
	}
	if st.LastCaptured != nil {
		resp.LastCaptured = st.LastCaptured.Timestamp.Format(models.TimestampLayout)
	}
	c.JSON(http.StatusOK, resp)
}

func toEntry(r models.SentimentRecord) dto.SentimentEntry {
	e := dto.SentimentEntry{
		Timestamp:      r.Timestamp.Format(models.TimestampLayout),
		LongPercent:    r.LongPercent,
		ShortPercent:   r.ShortPercent,
		LotsLong:       r.LotsLong,
		LotsShort:      r.LotsShort,
		PositionsLong:  r.PositionsLong,
		PositionsShort: r.PositionsShort,
	}
	if d, err := models.ParsePercent(r.LongPercent); err == nil {
		e.LongShare = &d
	}
	if d, err := models.ParsePercent(r.ShortPercent); err == nil {
		e.ShortShare = &d
	}
	return e
}

func intParam(c *gin.Context, name string, def, max int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > max {
		return 0, errors.New(name + " out of range")
	}
	return n, nil
}
