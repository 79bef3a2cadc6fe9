package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/repository"
)

func newStudentHandler(store *MockStore) *StudentHandler {
	return &StudentHandler{
		Store:         store,
		Mut:           testMutations(),
		Log:           zap.NewNop(),
		AdminPassword: "letmein",
	}
}

func doJSON(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestListClampsPagination(t *testing.T) {
	store := new(MockStore)
	store.On("Search", mock.Anything, "B12", 1, 200).Return([]repository.Attendee{}, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodGet, "/api/students?q=B12&page=0&limit=9999", "")

	h := newStudentHandler(store)
	assert.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestListDefaultsLimit(t *testing.T) {
	store := new(MockStore)
	store.On("Search", mock.Anything, "", 3, 100).Return([]repository.Attendee{}, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodGet, "/api/students?page=3", "")

	h := newStudentHandler(store)
	assert.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestCreateCoercesAmount(t *testing.T) {
	for body, want := range map[string]float64{
		`{"name":"Wu","amount_due":500}`:     500,
		`{"name":"Wu","amount_due":"500"}`:   500,
		`{"name":"Wu","amount_due":"junk"}`:  0,
		`{"name":"Wu","amount_due":-3}`:      0,
		`{"name":"Wu"}`:                      0,
	} {
		store := new(MockStore)
		store.On("Create", mock.Anything, mock.MatchedBy(func(a *repository.Attendee) bool {
			return a.AmountDue == want && !a.Paid && a.Serial == nil
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*repository.Attendee).ID = 7
		})

		e := echo.New()
		rec, c := doJSON(e, http.MethodPost, "/api/students", body)

		h := newStudentHandler(store)
		assert.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusOK, rec.Code, "body %s", body)
		assert.Contains(t, rec.Body.String(), `"id":7`)
		store.AssertExpectations(t)
	}
}

func TestPayRejectsBadSerial(t *testing.T) {
	for _, serial := range []string{"", "12", "12345", "abcd", "12 4"} {
		store := new(MockStore) // no expectations: the store must not be touched

		e := echo.New()
		rec, c := doJSON(e, http.MethodPost, "/api/students/5/pay", `{"serial":"`+serial+`"}`)
		c.SetParamNames("id")
		c.SetParamValues("5")

		h := newStudentHandler(store)
		assert.NoError(t, h.Pay(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "serial %q", serial)
		store.AssertExpectations(t)
	}
}

func TestPaySuccessAndNotFound(t *testing.T) {
	store := new(MockStore)
	store.On("Pay", mock.Anything, int64(5), "1234").Return(1, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/api/students/5/pay", `{"serial":"1234"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := newStudentHandler(store)
	assert.NoError(t, h.Pay(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	store = new(MockStore)
	store.On("Pay", mock.Anything, int64(99), "1234").Return(0, nil)
	rec, c = doJSON(e, http.MethodPost, "/api/students/99/pay", `{"serial":"1234"}`)
	c.SetParamNames("id")
	c.SetParamValues("99")

	h = newStudentHandler(store)
	assert.NoError(t, h.Pay(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelPayWrongPasswordLeavesStoreUntouched(t *testing.T) {
	store := new(MockStore) // no expectations

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/api/students/5/cancel_pay", `{"password":"wrong"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := newStudentHandler(store)
	assert.NoError(t, h.CancelPay(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertExpectations(t)
}

func TestCancelPaySuccess(t *testing.T) {
	store := new(MockStore)
	store.On("CancelPay", mock.Anything, int64(5)).Return(1, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/api/students/5/cancel_pay", `{"password":"letmein"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := newStudentHandler(store)
	assert.NoError(t, h.CancelPay(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestUpdateRejectsBadSerialOnPaidRow(t *testing.T) {
	serial := "12ab"
	store := new(MockStore)
	store.On("GetByID", mock.Anything, int64(5)).Return(&repository.Attendee{ID: 5, Paid: true}, nil)
	// Update must never be called

	e := echo.New()
	rec, c := doJSON(e, http.MethodPut, "/api/students/5", `{"name":"Wu","serial":"`+serial+`"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := newStudentHandler(store)
	assert.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertExpectations(t)
}

func TestUpdateDropsSerialOnUnpaidRow(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, int64(5)).Return(&repository.Attendee{ID: 5, Paid: false}, nil)
	store.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(f repository.UpdateFields) bool {
		return f.Serial == nil && f.Name == "Wu"
	})).Return(1, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodPut, "/api/students/5", `{"name":"Wu","serial":"9999"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := newStudentHandler(store)
	assert.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changes":1`)
	store.AssertExpectations(t)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, int64(42)).Return(nil, repository.ErrAttendeeNotFound)

	e := echo.New()
	rec, c := doJSON(e, http.MethodPut, "/api/students/42", `{"name":"Wu"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")

	h := newStudentHandler(store)
	assert.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReportsZeroForUnknownID(t *testing.T) {
	store := new(MockStore)
	store.On("Delete", mock.Anything, int64(42)).Return(0, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodDelete, "/api/students/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	h := newStudentHandler(store)
	assert.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":0`)
}

func TestCheckSerial(t *testing.T) {
	store := new(MockStore)
	store.On("SerialExists", mock.Anything, "1234", int64(7)).Return(true, 3, nil)

	e := echo.New()
	rec, c := doJSON(e, http.MethodGet, "/api/check_serial?serial=1234&exclude=7", "")

	h := newStudentHandler(store)
	assert.NoError(t, h.CheckSerial(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exists":true`)
	assert.Contains(t, rec.Body.String(), `"id":3`)

	// empty serial short-circuits without hitting the store
	store = new(MockStore)
	rec, c = doJSON(e, http.MethodGet, "/api/check_serial", "")
	h = newStudentHandler(store)
	assert.NoError(t, h.CheckSerial(c))
	assert.Contains(t, rec.Body.String(), `"exists":false`)
	store.AssertExpectations(t)
}
