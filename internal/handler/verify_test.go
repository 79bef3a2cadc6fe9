package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/repository"
)

func newVerifyHandler(store *MockStore) *VerifyHandler {
	return &VerifyHandler{Store: store, Mut: testMutations(), Log: zap.NewNop()}
}

func verifyCtx(e *echo.Echo, method, target, serial string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("serial")
	c.SetParamValues(serial)
	return rec, c
}

func TestLookupUnknownSerialIsNotFound(t *testing.T) {
	store := new(MockStore)
	store.On("GetBySerial", mock.Anything, "0042").Return(nil, repository.ErrAttendeeNotFound)

	e := echo.New()
	rec, c := verifyCtx(e, http.MethodGet, "/api/verify/0042", "0042")

	h := newVerifyHandler(store)
	assert.NoError(t, h.Lookup(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupReturnsVerifiedFlag(t *testing.T) {
	serial := "1234"
	store := new(MockStore)
	store.On("GetBySerial", mock.Anything, serial).Return(&repository.Attendee{
		ID: 3, Name: "Wu", Paid: true, Serial: &serial, Verified: false,
	}, nil)

	e := echo.New()
	rec, c := verifyCtx(e, http.MethodGet, "/api/verify/1234", serial)

	h := newVerifyHandler(store)
	assert.NoError(t, h.Lookup(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":false`)
	assert.Contains(t, rec.Body.String(), `"serial":"1234"`)
}

func TestCheckinTogglesAndReportsUnknownSerial(t *testing.T) {
	store := new(MockStore)
	store.On("SetVerified", mock.Anything, "1234", true).Return(1, nil)

	e := echo.New()
	rec, c := verifyCtx(e, http.MethodPost, "/api/verify/1234/checkin", "1234")

	h := newVerifyHandler(store)
	assert.NoError(t, h.Checkin(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)

	store = new(MockStore)
	store.On("SetVerified", mock.Anything, "0000", true).Return(0, nil)
	rec, c = verifyCtx(e, http.MethodPost, "/api/verify/0000/checkin", "0000")
	h = newVerifyHandler(store)
	assert.NoError(t, h.Checkin(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUncheckin(t *testing.T) {
	store := new(MockStore)
	store.On("SetVerified", mock.Anything, "1234", false).Return(1, nil)

	e := echo.New()
	rec, c := verifyCtx(e, http.MethodPost, "/api/verify/1234/uncheckin", "1234")

	h := newVerifyHandler(store)
	assert.NoError(t, h.Uncheckin(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}
