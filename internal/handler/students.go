package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/queue"
	"github.com/khlin/ticket-registration/internal/repository"
)

const (
	defaultPageSize = 100
	maxPageSize     = 200
)

// StudentHandler exposes the registrar console operations: list/search,
// stats, create, update, delete, pay and cancel-pay.
type StudentHandler struct {
	Store AttendeeStore
	Mut   *Mutations
	Log   *zap.Logger

	// AdminPassword/AdminPasswordHash guard cancel-pay.
	AdminPassword     string
	AdminPasswordHash string
}

// amount accepts a JSON number or a numeric string; anything else decodes to
// 0 rather than failing the request. Negative values also clamp to 0 since
// a ticket cannot carry a negative price.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		*a = 0
		return nil
	}
	*a = amount(n)
	return nil
}

type studentReq struct {
	Klass     string  `json:"klass"`
	StudentNo string  `json:"student_no"`
	Name      string  `json:"name"`
	SeatArea  string  `json:"seat_area"`
	Phone     string  `json:"phone"`
	AmountDue amount  `json:"amount_due"`
	Notes     string  `json:"notes"`
	Serial    *string `json:"serial"`
}

// List handles GET /api/students?q&page&limit. The query substring-matches
// klass, student_no, name, phone and serial; results put unpaid rows first.
func (h *StudentHandler) List(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, err := h.Store.Search(c.Request().Context(), q, page, limit)
	if err != nil {
		h.Log.Error("list attendees failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Stats handles GET /api/stats.
func (h *StudentHandler) Stats(c echo.Context) error {
	s, err := h.Store.Stats(c.Request().Context())
	if err != nil {
		h.Log.Error("stats failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// CheckSerial handles GET /api/check_serial?serial&exclude. The console
// calls it before pay to warn when a stub number is already assigned to a
// different attendee; payment itself does not enforce uniqueness.
func (h *StudentHandler) CheckSerial(c echo.Context) error {
	serial := strings.TrimSpace(c.QueryParam("serial"))
	if serial == "" {
		return c.JSON(http.StatusOK, echo.Map{"exists": false})
	}
	excludeID, _ := strconv.ParseInt(c.QueryParam("exclude"), 10, 64)

	exists, id, err := h.Store.SerialExists(c.Request().Context(), serial, excludeID)
	if err != nil {
		h.Log.Error("check serial failed", zap.Error(err), zap.String("serial", serial))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !exists {
		return c.JSON(http.StatusOK, echo.Map{"exists": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": true, "id": id})
}

// Create handles POST /api/students. New records always start unpaid with
// no serial; whatever the client sent for those fields is ignored.
func (h *StudentHandler) Create(c echo.Context) error {
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	a := repository.Attendee{
		Klass:     req.Klass,
		StudentNo: req.StudentNo,
		Name:      req.Name,
		SeatArea:  req.SeatArea,
		Phone:     req.Phone,
		AmountDue: float64(req.AmountDue),
		Notes:     req.Notes,
	}
	if err := h.Store.Create(c.Request().Context(), &a); err != nil {
		h.Log.Error("create attendee failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "create", AttendeeID: a.ID})
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "id": a.ID})
}

// Update handles PUT /api/students/:id. The row's current paid flag decides
// what happens to a supplied serial: on a paid row it must be 4 digits or
// the whole update is rejected; on an unpaid row it is silently dropped,
// since serials only exist after payment.
func (h *StudentHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	cur, err := h.Store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
		}
		h.Log.Error("load attendee failed", zap.Error(err), zap.Int64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	serial := req.Serial
	if cur.Paid {
		if serial != nil && *serial != "" && !repository.ValidSerial(*serial) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "serial must be 4 digits"})
		}
	} else {
		serial = nil
	}

	changes, err := h.Store.Update(c.Request().Context(), id, repository.UpdateFields{
		Klass:     req.Klass,
		StudentNo: req.StudentNo,
		Name:      req.Name,
		SeatArea:  req.SeatArea,
		Phone:     req.Phone,
		AmountDue: float64(req.AmountDue),
		Notes:     req.Notes,
		Serial:    serial,
	})
	if err != nil {
		h.Log.Error("update attendee failed", zap.Error(err), zap.Int64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if changes > 0 {
		h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "update", AttendeeID: id})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "changes": changes})
}

type payReq struct {
	Serial string `json:"serial"`
}

// Pay handles POST /api/students/:id/pay. The caller must supply the 4-digit
// stub number handed out at the desk; paid, paid_at and serial are set in
// one statement.
func (h *StudentHandler) Pay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Serial = strings.TrimSpace(req.Serial)
	if !repository.ValidSerial(req.Serial) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serial must be 4 digits"})
	}

	rows, err := h.Store.Pay(c.Request().Context(), id, req.Serial)
	if err != nil {
		h.Log.Error("pay failed", zap.Error(err), zap.Int64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if rows == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	}
	h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "pay", AttendeeID: id, Serial: req.Serial})
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

type cancelPayReq struct {
	Password string `json:"password"`
}

// CancelPay handles POST /api/students/:id/cancel_pay. The admin password
// gates the operation; on success paid, paid_at, serial and the gate
// verification state reset together.
func (h *StudentHandler) CancelPay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req cancelPayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !secretMatches(req.Password, h.AdminPassword, h.AdminPasswordHash) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	}

	rows, err := h.Store.CancelPay(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("cancel pay failed", zap.Error(err), zap.Int64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if rows == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	}
	h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "cancel_pay", AttendeeID: id})
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Delete handles DELETE /api/students/:id. Unknown ids are not an error;
// the response reports zero deleted rows.
func (h *StudentHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rows, err := h.Store.Delete(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("delete attendee failed", zap.Error(err), zap.Int64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if rows > 0 {
		h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "delete", AttendeeID: id})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "deleted": rows})
}

// compile-time check that the decoder hook stays wired
var _ json.Unmarshaler = (*amount)(nil)
