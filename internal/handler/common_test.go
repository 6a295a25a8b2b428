package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	cachemocks "bus-ticket-booking/internal/cache/mocks"
	"bus-ticket-booking/internal/handler"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/service/mocks"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "valid-token"
	testUserID = 7
)

var (
	InvalidJSON = `{"invalid": json}`
)

type handlerMocks struct {
	sessions *cachemocks.SessionStoreMock
	seats    *mocks.SeatServiceMock
	tickets  *mocks.TicketServiceMock
	payments *mocks.PaymentServiceMock
	profiles *mocks.ProfileServiceMock
}

func (m *handlerMocks) assertExpectations(t *testing.T) {
	m.seats.AssertExpectations(t)
	m.tickets.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.profiles.AssertExpectations(t)
}

// setupTestRouter 與正式環境相同的路由；testToken 對應 testUserID，其餘 token 一律無效
func setupTestRouter() (*gin.Engine, *handlerMocks) {
	gin.SetMode(gin.TestMode)

	m := &handlerMocks{
		sessions: cachemocks.NewSessionStoreMock(),
		seats:    mocks.NewSeatServiceMock(),
		tickets:  mocks.NewTicketServiceMock(),
		payments: mocks.NewPaymentServiceMock(),
		profiles: mocks.NewProfileServiceMock(),
	}
	m.sessions.On("UserID", mock.Anything, testToken).Return(testUserID, nil).Maybe()
	m.sessions.On("UserID", mock.Anything, mock.Anything).Return(0, apperrors.ErrUnauthorized).Maybe()

	router := handler.NewRouter(m.sessions,
		handler.NewSeatHandler(m.seats),
		handler.NewTicketHandler(m.tickets),
		handler.NewPaymentHandler(m.payments),
		handler.NewUserHandler(m.profiles),
	)
	return router, m
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if s, ok := data.(string); ok {
		return bytes.NewBufferString(s)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create authenticated HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	var req *http.Request
	var err error
	if data == nil {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, createJSONRequest(data))
	}
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func decodeResponse(t *testing.T, body *bytes.Buffer) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}
